// Package worker runs the periodic refresh jobs: token quotes, DEX pool
// snapshots and contract deployment scans.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/walletfeed/chainfeed/metrics"
)

// job is one refresh pass; its result count is only logged.
type job func(ctx context.Context) (int, error)

// runEvery runs fn immediately and then on every tick until ctx is done. A
// failed pass is logged and the loop keeps going.
func runEvery(ctx context.Context, name string, interval time.Duration, logger *slog.Logger, fn job) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		runOnce(ctx, name, logger, fn)

		select {
		case <-ctx.Done():
			logger.Info("worker stopped", slog.String("worker", name))
			return nil
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, name string, logger *slog.Logger, fn job) {
	start := time.Now()
	runs := metrics.GetMetrics().Quote.RefreshRunsTotal

	n, err := fn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		runs.WithLabelValues(name, "error").Inc()
		metrics.SetComponentHealth(name, false)
		logger.Error("refresh failed", slog.String("worker", name), slog.Any("error", err))
		return
	}

	runs.WithLabelValues(name, "success").Inc()
	metrics.SetComponentHealth(name, true)
	logger.Info("refresh done",
		slog.String("worker", name),
		slog.Int("items", n),
		slog.Duration("elapsed", time.Since(start)))
}
