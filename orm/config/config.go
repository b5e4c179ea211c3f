package config

import (
	"net/url"
	"strconv"
	"time"

	"github.com/walletfeed/chainfeed/types"
)

// Config holds the quote store connection settings. A zero SlowThreshold
// disables slow query logging; a zero ConnMaxLifetime keeps connections open.
type Config struct {
	DSN             string
	AutoMigrate     bool
	MaxConns        int
	IdleConns       int
	BatchSize       int
	SlowThreshold   time.Duration
	ConnMaxLifetime time.Duration
}

// Enabled reports whether persistence is configured. Without a DSN quotes are
// served from memory only.
func (c Config) Enabled() bool {
	return c.DSN != ""
}

func (c Config) Validate() error {
	if c.DSN == "" {
		return types.NewValidationError("DB_DSN", "DB_DSN is required")
	}
	if u, err := url.Parse(c.DSN); err == nil && u.Scheme != "" && u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return types.NewInvalidValueError("DB_DSN", u.Scheme, "DSN scheme must be postgres")
	}
	if c.MaxConns < 1 {
		return types.NewInvalidValueError("DB_MAX_CONNS", strconv.Itoa(c.MaxConns), "must be at least 1")
	}
	if c.IdleConns < 1 || c.IdleConns > c.MaxConns {
		return types.NewInvalidValueError("DB_IDLE_CONNS", strconv.Itoa(c.IdleConns), "must be between 1 and DB_MAX_CONNS")
	}
	if c.BatchSize < 1 {
		return types.NewInvalidValueError("DB_BATCH_SIZE", strconv.Itoa(c.BatchSize), "must be at least 1")
	}
	if c.SlowThreshold < 0 {
		return types.NewInvalidValueError("DB_SLOW_QUERY_THRESHOLD", c.SlowThreshold.String(), "must not be negative")
	}
	if c.ConnMaxLifetime < 0 {
		return types.NewInvalidValueError("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime.String(), "must not be negative")
	}
	return nil
}
