package cmd

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/log"
	"github.com/walletfeed/chainfeed/metrics"
	"github.com/walletfeed/chainfeed/orm"
	"github.com/walletfeed/chainfeed/quoter"
	"github.com/walletfeed/chainfeed/sentry_integration"
	"github.com/walletfeed/chainfeed/util/jsonrpc"
	"github.com/walletfeed/chainfeed/zilliqa"
)

// runtime holds the components a command needs. db is nil when DB_DSN is unset.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *orm.Database

	chainClient *jsonrpc.Client
	quoteClient *jsonrpc.Client
	reader      *zilliqa.Reader
	quoter      *quoter.Quoter
}

func newRuntime(ctx context.Context, withDB bool) (*runtime, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	logger := log.NewLogger(cfg)
	metrics.Init(cfg.GetChainConfig().Environment)
	if err := sentry_integration.Init(cfg.GetSentryConfig()); err != nil {
		logger.Warn("sentry disabled", slog.Any("error", err))
	}

	chainCfg := cfg.GetChainConfig()
	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		chainClient: jsonrpc.NewClient(jsonrpc.Config{
			Endpoints:     chainCfg.RpcUrls,
			ChunkSize:     chainCfg.ChunkSize,
			Timeout:       cfg.GetQueryTimeout(),
			StrictChunks:  chainCfg.StrictChunks,
			MaxConcurrent: cfg.GetMaxConcurrentRequests(),
		}, logger),
		quoteClient: jsonrpc.NewClient(jsonrpc.Config{
			Timeout:       cfg.GetQueryTimeout(),
			MaxConcurrent: cfg.GetMaxConcurrentRequests(),
		}, logger),
	}
	rt.reader = zilliqa.NewReader(rt.chainClient, chainCfg.AddressPrefix, logger)

	rt.quoter, err = quoter.New(cfg, rt.quoteClient, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if withDB && cfg.GetDBConfig().Enabled() {
		db, err := orm.OpenDB(cfg.GetDBConfig(), logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.db = db
		if err := db.Migrate(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	}

	return rt, nil
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.logger.Warn("failed to close database", slog.Any("error", err))
		}
	}
	rt.chainClient.Close()
	rt.quoteClient.Close()
	sentry_integration.Flush()
}

// startMetrics serves metrics in the background until ctx is done.
func (rt *runtime) startMetrics(ctx context.Context) {
	server := metrics.NewServer(rt.cfg, rt.logger)
	if rt.db != nil {
		metrics.StartDBStatsUpdater(rt.db, rt.logger)
	}

	go func() {
		if err := server.Start(); err != nil {
			rt.logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			rt.logger.Warn("metrics server shutdown failed", slog.Any("error", err))
		}
	}()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
