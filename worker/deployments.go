package worker

import (
	"context"
	"log/slog"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/metrics"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/zilliqa"
)

const (
	ScanWorkerName = "scan"

	DefaultScanBlocks = 100
)

type ChainScanner interface {
	LatestTxBlock(ctx context.Context) (uint64, error)
	ScanDeployments(ctx context.Context, blocks []uint64) ([]zilliqa.Deployment, error)
	ResolveContracts(ctx context.Context, deployments []zilliqa.Deployment) ([]zilliqa.Deployment, error)
}

type DeploymentStore interface {
	GetSeqInfo(ctx context.Context, name string) (int64, error)
	SaveDeployments(ctx context.Context, deployments []types.CollectedDeployment, scanHeight int64) error
}

// DeploymentScanner walks tx blocks forward from the stored cursor and
// records contract deployments with their owners.
type DeploymentScanner struct {
	cfg       *config.Config
	chain     ChainScanner
	store     DeploymentStore
	maxBlocks uint64
	logger    *slog.Logger
}

func NewDeploymentScanner(cfg *config.Config, chain ChainScanner, store DeploymentStore, maxBlocks uint64, logger *slog.Logger) *DeploymentScanner {
	if maxBlocks == 0 {
		maxBlocks = DefaultScanBlocks
	}
	return &DeploymentScanner{
		cfg:       cfg,
		chain:     chain,
		store:     store,
		maxBlocks: maxBlocks,
		logger:    logger.With("component", "deployment_scanner"),
	}
}

func (s *DeploymentScanner) Run(ctx context.Context) error {
	return runEvery(ctx, ScanWorkerName, s.cfg.GetPollingInterval(), s.logger, s.RunOnce)
}

// RunOnce scans at most maxBlocks blocks after the cursor. The first scan
// starts maxBlocks behind the chain head.
func (s *DeploymentScanner) RunOnce(ctx context.Context) (int, error) {
	numBlocks, err := s.chain.LatestTxBlock(ctx)
	if err != nil {
		return 0, err
	}
	if numBlocks == 0 {
		return 0, nil
	}
	head := numBlocks - 1

	cursor, err := s.store.GetSeqInfo(ctx, types.SeqInfoScanHeight)
	if err != nil {
		return 0, err
	}

	from := uint64(cursor) + 1
	if cursor <= 0 {
		from = head + 1 - min(s.maxBlocks, head+1)
	}
	if from > head {
		return 0, nil
	}
	to := min(head, from+s.maxBlocks-1)

	deployments, err := s.ScanRange(ctx, from, to)
	if err != nil {
		return 0, err
	}

	if err := s.store.SaveDeployments(ctx, DeploymentRows(deployments), int64(to)); err != nil {
		return 0, err
	}
	metrics.GetMetrics().Quote.CurrentScanHeight.Set(float64(to))
	return len(deployments), nil
}

// ScanRange returns resolved deployments in blocks from..to inclusive.
func (s *DeploymentScanner) ScanRange(ctx context.Context, from, to uint64) ([]zilliqa.Deployment, error) {
	if to < from {
		return []zilliqa.Deployment{}, nil
	}

	blocks := make([]uint64, 0, to-from+1)
	for b := from; b <= to; b++ {
		blocks = append(blocks, b)
	}

	found, err := s.chain.ScanDeployments(ctx, blocks)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("scanned blocks",
		slog.Uint64("from", from),
		slog.Uint64("to", to),
		slog.Int("deployments", len(found)))

	return s.chain.ResolveContracts(ctx, found)
}

func DeploymentRows(deployments []zilliqa.Deployment) []types.CollectedDeployment {
	rows := make([]types.CollectedDeployment, len(deployments))
	for i, d := range deployments {
		rows[i] = types.CollectedDeployment{
			TxID:            d.TxID,
			ContractAddress: d.ContractAddress,
			OwnerAddress:    d.OwnerAddress,
			OwnerBech32:     d.OwnerBech32,
			Height:          int64(d.Height),
		}
	}
	return rows
}
