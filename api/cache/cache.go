// Package cache provides response caching for read-mostly API routes.
package cache

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
)

// The middleware clock ticks once per second, so shorter lifetimes are
// rounded up to it.
const MinExpiration = time.Second

// ResultHeader carries hit, miss or unreachable on cached routes.
const ResultHeader = "X-Cache"

type Config struct {
	Expiration time.Duration
	// IncludeQueryParams adds the query, with parameters sorted, to the key.
	IncludeQueryParams bool
}

func DefaultConfig() Config {
	return Config{
		Expiration:         MinExpiration,
		IncludeQueryParams: true,
	}
}

func New(cfg Config) fiber.Handler {
	if cfg.Expiration < MinExpiration {
		cfg.Expiration = MinExpiration
	}

	cacheConfig := cache.Config{
		Expiration:   cfg.Expiration,
		CacheHeader:  ResultHeader,
		CacheControl: true,
	}
	if cfg.IncludeQueryParams {
		cacheConfig.KeyGenerator = Key
	}
	return cache.New(cacheConfig)
}

func WithExpiration(expiration time.Duration) fiber.Handler {
	cfg := DefaultConfig()
	cfg.Expiration = expiration
	return New(cfg)
}

// Key identifies a request by method, path and its canonical query, so
// ?a=1&b=2 and ?b=2&a=1 share an entry.
func Key(c *fiber.Ctx) string {
	key := c.Method() + ":" + c.Path()
	raw := string(c.Request().URI().QueryString())
	if raw == "" {
		return key
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return key + "?" + raw
	}
	return key + "?" + values.Encode()
}
