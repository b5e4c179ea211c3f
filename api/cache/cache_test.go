package cache_test

import (
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/walletfeed/chainfeed/api/cache"
)

func newCountingApp(expiration time.Duration) (*fiber.App, *atomic.Int32) {
	var calls atomic.Int32
	app := fiber.New()
	app.Get("/pools", cache.WithExpiration(expiration), func(c *fiber.Ctx) error {
		n := calls.Add(1)
		return c.JSON(fiber.Map{"call": n})
	})
	return app, &calls
}

func get(t *testing.T, app *fiber.App, target string) (string, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.Header.Get("X-Cache"), string(body)
}

func TestCacheHitAndExpiry(t *testing.T) {
	app, calls := newCountingApp(2 * time.Second)

	status, first := get(t, app, "/pools")
	require.Equal(t, "miss", status)

	time.Sleep(100 * time.Millisecond)
	status, second := get(t, app, "/pools")
	require.Equal(t, "hit", status)
	require.Equal(t, first, second)
	require.Equal(t, int32(1), calls.Load())

	time.Sleep(3100 * time.Millisecond)
	status, third := get(t, app, "/pools")
	require.Equal(t, "miss", status)
	require.NotEqual(t, first, third)
}

func TestCacheKeyIgnoresQueryOrder(t *testing.T) {
	app, calls := newCountingApp(time.Minute)

	status, _ := get(t, app, "/pools?a=1&b=2")
	require.Equal(t, "miss", status)

	status, _ = get(t, app, "/pools?b=2&a=1")
	require.Equal(t, "hit", status)

	status, _ = get(t, app, "/pools?a=2")
	require.Equal(t, "miss", status)
	require.Equal(t, int32(2), calls.Load())
}

func TestKey(t *testing.T) {
	app := fiber.New()
	app.Get("/key", func(c *fiber.Ctx) error {
		return c.SendString(cache.Key(c))
	})

	_, body := get(t, app, "/key")
	require.Equal(t, "GET:/key", body)

	_, body = get(t, app, "/key?tokens=0xb,0xa&limit=1")
	require.Equal(t, "GET:/key?limit=1&tokens=0xb%2C0xa", body)
}
