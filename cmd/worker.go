package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/walletfeed/chainfeed/worker"
)

func workerCmd() *cobra.Command {
	var scanBlocks uint64

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the periodic refresh workers",
		Long: `
Run the periodic refresh workers.

The quote worker refreshes QUOTE_TOKENS every POLLING_INTERVAL. When DB_DSN is set,
the pool worker stores DEX pool snapshots and the deployment scanner indexes
contract deployments by owner.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			rt, err := newRuntime(ctx, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.startMetrics(ctx)

			var store worker.QuoteStore
			if rt.db != nil {
				store = rt.db
			}
			quotes := worker.NewQuoteWorker(rt.cfg, rt.quoter, store, worker.NewPriceCache(rt.cfg), rt.logger)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return quotes.Run(ctx) })

			if rt.db != nil {
				pools := worker.NewPoolWorker(rt.cfg, rt.reader, rt.db, rt.logger)
				scanner := worker.NewDeploymentScanner(rt.cfg, rt.reader, rt.db, scanBlocks, rt.logger)
				g.Go(func() error { return pools.Run(ctx) })
				g.Go(func() error { return scanner.Run(ctx) })
			} else {
				rt.logger.Info("DB_DSN not set, pool and deployment workers disabled")
			}

			return g.Wait()
		},
	}

	cmd.Flags().Uint64Var(&scanBlocks, "scan-blocks", worker.DefaultScanBlocks, "maximum tx blocks scanned per run")

	return cmd
}
