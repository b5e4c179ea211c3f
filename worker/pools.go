package worker

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/zilliqa"
)

const PoolWorkerName = "pools"

type PoolSource interface {
	Pools(ctx context.Context, dexContract string) (map[string]zilliqa.Reserves, error)
}

type PoolStore interface {
	ReplacePools(ctx context.Context, pools []types.CollectedDexPool) error
}

type PoolWorker struct {
	cfg    *config.Config
	source PoolSource
	store  PoolStore
	logger *slog.Logger
}

func NewPoolWorker(cfg *config.Config, source PoolSource, store PoolStore, logger *slog.Logger) *PoolWorker {
	return &PoolWorker{
		cfg:    cfg,
		source: source,
		store:  store,
		logger: logger.With("component", "pool_worker"),
	}
}

func (w *PoolWorker) Run(ctx context.Context) error {
	return runEvery(ctx, PoolWorkerName, w.cfg.GetPollingInterval(), w.logger, w.RunOnce)
}

// RunOnce replaces the stored pool snapshot with the DEX contract's current
// non-empty pools.
func (w *PoolWorker) RunOnce(ctx context.Context) (int, error) {
	pools, err := w.source.Pools(ctx, w.cfg.GetChainConfig().DexContract)
	if err != nil {
		return 0, err
	}

	rows := PoolRows(pools, time.Now().UTC())
	if err := w.store.ReplacePools(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// PoolRows converts reserves to rows ordered by token address.
func PoolRows(pools map[string]zilliqa.Reserves, now time.Time) []types.CollectedDexPool {
	rows := make([]types.CollectedDexPool, 0, len(pools))
	for token, reserves := range pools {
		rows = append(rows, types.CollectedDexPool{
			TokenAddress: token,
			ZilReserve:   reserves.Zil.String(),
			TokenReserve: reserves.Token.String(),
			UpdatedAt:    now,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TokenAddress < rows[j].TokenAddress })
	return rows
}
