package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/walletfeed/chainfeed/api"
	"github.com/walletfeed/chainfeed/api/handler"
	"github.com/walletfeed/chainfeed/worker"
)

func apiCmd() *cobra.Command {
	var withWorker bool

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Run the chainfeed API server",
		Long: `
Run the chainfeed API server.

This command serves token prices, address conversion and DEX pool data over HTTP.
Unless --with-worker=false is given, the quote worker runs in the same process and
keeps the price cache warm.

You can configure database, chain, quoter, logging, and server options via environment variables.`,
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

			priceCache := worker.NewPriceCache(rt.cfg)
			server := api.New(rt.cfg, rt.logger, rt.db, handler.Sources{
				Prices:     rt.quoter,
				PriceCache: priceCache,
				Pools:      rt.reader,
			})

			g, ctx := errgroup.WithContext(ctx)
			if withWorker {
				var store worker.QuoteStore
				if rt.db != nil {
					store = rt.db
				}
				quotes := worker.NewQuoteWorker(rt.cfg, rt.quoter, store, priceCache, rt.logger)
				g.Go(func() error { return quotes.Run(ctx) })
			}
			g.Go(server.Start)
			g.Go(func() error {
				<-ctx.Done()
				rt.logger.Info("shutting down API server...")
				if err := server.Shutdown(); err != nil {
					rt.logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
					return err
				}
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&withWorker, "with-worker", true, "run the quote worker in-process")

	return cmd
}
