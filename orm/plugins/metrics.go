package plugins

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/walletfeed/chainfeed/metrics"
)

const startTimeKey = "metrics:start_time"

var tablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)INSERT\s+INTO\s+["\x60]?(\w+)["\x60]?`),
	regexp.MustCompile(`(?i)DELETE\s+FROM\s+["\x60]?(\w+)["\x60]?`),
	regexp.MustCompile(`(?i)UPDATE\s+["\x60]?(\w+)["\x60]?`),
	regexp.MustCompile(`(?i)FROM\s+["\x60]?(\w+)["\x60]?`),
}

// MetricsPlugin is a GORM plugin that tracks database query metrics
type MetricsPlugin struct{}

func NewMetricsPlugin() *MetricsPlugin {
	return &MetricsPlugin{}
}

func (p *MetricsPlugin) Name() string {
	return "MetricsPlugin"
}

func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	type register func(name string, fn func(*gorm.DB)) error

	cb := db.Callback()
	hooks := []struct {
		name          string
		before, after register
	}{
		{"query", cb.Query().Before("*").Register, cb.Query().After("*").Register},
		{"create", cb.Create().Before("*").Register, cb.Create().After("*").Register},
		{"update", cb.Update().Before("*").Register, cb.Update().After("*").Register},
		{"delete", cb.Delete().Before("*").Register, cb.Delete().After("*").Register},
		{"raw", cb.Raw().Before("*").Register, cb.Raw().After("*").Register},
	}

	for _, hook := range hooks {
		if err := hook.before("metrics:before_"+hook.name, p.before); err != nil {
			return err
		}
		if err := hook.after("metrics:after_"+hook.name, p.after); err != nil {
			return err
		}
	}
	return nil
}

func (p *MetricsPlugin) before(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func (p *MetricsPlugin) after(db *gorm.DB) {
	value, ok := db.InstanceGet(startTimeKey)
	if !ok {
		return
	}
	start, ok := value.(time.Time)
	if !ok {
		return
	}

	operation := OperationType(db.Statement.SQL.String())
	status := "success"
	if db.Error != nil {
		status = "error"
	}

	dbMetrics := metrics.GetMetrics().Database
	dbMetrics.QueriesTotal.WithLabelValues(operation, status).Inc()
	dbMetrics.QueryDuration.WithLabelValues(operation, tableName(db)).Observe(time.Since(start).Seconds())

	if operation != "SELECT" && db.RowsAffected >= 0 {
		dbMetrics.RowsAffected.WithLabelValues(operation).Observe(float64(db.RowsAffected))
	}
}

// OperationType returns the leading SQL keyword of a statement.
func OperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	if sql == "" {
		return "UNKNOWN"
	}

	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}

func tableName(db *gorm.DB) string {
	if db.Statement == nil {
		return "unknown"
	}
	if db.Statement.Table != "" {
		return db.Statement.Table
	}
	if table := TableFromSQL(db.Statement.SQL.String()); table != "" {
		return table
	}
	return "unknown"
}

// TableFromSQL extracts the target table of a statement.
func TableFromSQL(sql string) string {
	for _, re := range tablePatterns {
		if matches := re.FindStringSubmatch(sql); len(matches) > 1 {
			return matches[1]
		}
	}
	return ""
}
