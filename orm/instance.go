package orm

import (
	"context"
	"database/sql"
	"log/slog"

	sloggorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/walletfeed/chainfeed/orm/config"
	"github.com/walletfeed/chainfeed/orm/plugins"
	"github.com/walletfeed/chainfeed/types"
)

var (
	UpdateAllWhenConflict = clause.OnConflict{
		UpdateAll: true,
	}
	DoNothingWhenConflict = clause.OnConflict{
		DoNothing: true,
	}
)

type Database struct {
	*gorm.DB
	config *config.Config
}

// OpenDB connects to the postgres quote store.
func OpenDB(config *config.Config, logger *slog.Logger) (*Database, error) {
	return Open(postgres.Open(config.DSN), config, logger)
}

// Open connects through any gorm dialector, so tests can run on SQLite.
func Open(dialector gorm.Dialector, config *config.Config, logger *slog.Logger) (*Database, error) {
	gormcfg := &gorm.Config{
		NamingStrategy:  schema.NamingStrategy{SingularTable: true},
		PrepareStmt:     true,
		CreateBatchSize: config.BatchSize,
		Logger:          newGormLogger(config, logger),
	}

	instance, err := gorm.Open(dialector, gormcfg)
	if err != nil {
		return nil, types.NewDatabaseError("open", err)
	}

	sqlDB, err := instance.DB()
	if err != nil {
		return nil, types.NewDatabaseError("open", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxConns)
	sqlDB.SetMaxIdleConns(config.IdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := instance.Use(plugins.NewMetricsPlugin()); err != nil {
		return nil, err
	}

	return &Database{DB: instance, config: config}, nil
}

// newGormLogger routes gorm through the service logger. Missing quotes are an
// expected outcome of GetQuote, so record-not-found is not logged as an error.
func newGormLogger(config *config.Config, logger *slog.Logger) gormlogger.Interface {
	opts := []sloggorm.Option{
		sloggorm.WithHandler(logger.With("component", "orm").Handler()),
	}
	if config.SlowThreshold > 0 {
		opts = append(opts, sloggorm.WithSlowThreshold(config.SlowThreshold))
	}
	return sloggorm.New(opts...)
}

// Migrate creates or alters every table in types.AllTables when
// DB_AUTO_MIGRATE is set.
func (d Database) Migrate(ctx context.Context) error {
	if !d.config.AutoMigrate {
		return nil
	}

	tables := types.AllTables()
	models := make([]any, 0, len(tables))
	for _, table := range tables {
		models = append(models, table.Model)
	}

	if err := d.WithContext(ctx).AutoMigrate(models...); err != nil {
		return types.NewDatabaseError("migrate", err)
	}
	return nil
}

func (d Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d Database) GetBatchSize() int {
	return d.config.BatchSize
}

// GetDBStats returns database connection pool statistics
func (d Database) GetDBStats() (*sql.DBStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}

	stats := sqlDB.Stats()
	return &stats, nil
}
