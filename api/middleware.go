package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/walletfeed/chainfeed/api/cache"
	"github.com/walletfeed/chainfeed/api/handler/common"
	"github.com/walletfeed/chainfeed/metrics"
)

// metricsMiddleware records request count, latency and in-flight requests per
// handler group, and the response cache result of cached routes.
func metricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		httpMetrics := metrics.GetMetrics().HTTP
		start := time.Now()
		method := c.Method()
		pattern := metrics.GetHandlerPattern(c.Path())

		httpMetrics.RequestsInFlight.Inc()
		defer httpMetrics.RequestsInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = common.StatusFor(err)
		}

		httpMetrics.RequestsTotal.WithLabelValues(method, pattern, metrics.GetStatusClass(status)).Inc()
		httpMetrics.RequestDuration.WithLabelValues(method, pattern).Observe(time.Since(start).Seconds())
		if result := c.GetRespHeader(cache.ResultHeader); result != "" {
			httpMetrics.ResponseCacheTotal.WithLabelValues(pattern, result).Inc()
		}
		c.Set("X-Response-Time", strconv.FormatInt(time.Since(start).Milliseconds(), 10)+"ms")

		return err
	}
}
