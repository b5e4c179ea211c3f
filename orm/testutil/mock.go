package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/walletfeed/chainfeed/orm"
	"github.com/walletfeed/chainfeed/orm/config"
)

var dbCounter atomic.Int64

// NewTestDB opens a migrated in-memory SQLite database private to t.
func NewTestDB(t *testing.T) *orm.Database {
	t.Helper()

	cfg := &config.Config{
		DSN:         fmt.Sprintf("file:chainfeed_%d?mode=memory&cache=shared", dbCounter.Add(1)),
		AutoMigrate: true,
		MaxConns:    1,
		IdleConns:   1,
		BatchSize:   100,
	}

	db, err := orm.Open(sqlite.Open(cfg.DSN), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))

	t.Cleanup(func() { _ = db.Close() })
	return db
}
