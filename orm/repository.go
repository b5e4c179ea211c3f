package orm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walletfeed/chainfeed/types"
)

// SaveQuotes upserts the latest quote of every token.
func (d Database) SaveQuotes(ctx context.Context, quotes []types.CollectedTokenQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	if err := d.WithContext(ctx).Clauses(UpdateAllWhenConflict).Create(&quotes).Error; err != nil {
		return types.NewDatabaseError("save quotes", err)
	}
	return nil
}

func (d Database) GetQuote(ctx context.Context, tokenAddress string) (*types.CollectedTokenQuote, error) {
	var quote types.CollectedTokenQuote
	err := d.WithContext(ctx).Where("token_address = ?", tokenAddress).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError(fmt.Sprintf("quote for %s", tokenAddress))
	}
	if err != nil {
		return nil, types.NewDatabaseError("get quote", err)
	}
	return &quote, nil
}

// ListQuotes returns every stored quote, most recent first.
func (d Database) ListQuotes(ctx context.Context) ([]types.CollectedTokenQuote, error) {
	var quotes []types.CollectedTokenQuote
	err := d.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order("token_address").
		Find(&quotes).Error
	if err != nil {
		return nil, types.NewDatabaseError("list quotes", err)
	}
	return quotes, nil
}

// ReplacePools makes the stored pool set equal to pools.
func (d Database) ReplacePools(ctx context.Context, pools []types.CollectedDexPool) error {
	tokens := make([]string, len(pools))
	for i, pool := range pools {
		tokens[i] = pool.TokenAddress
	}

	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if len(tokens) > 0 {
			stale = stale.Where("token_address NOT IN ?", tokens)
		}
		if err := stale.Delete(&types.CollectedDexPool{}).Error; err != nil {
			return err
		}
		if len(pools) == 0 {
			return nil
		}
		return tx.Clauses(UpdateAllWhenConflict).Create(&pools).Error
	})
	if err != nil {
		return types.NewDatabaseError("replace pools", err)
	}
	return nil
}

func (d Database) ListPools(ctx context.Context) ([]types.CollectedDexPool, error) {
	var pools []types.CollectedDexPool
	if err := d.WithContext(ctx).Order("token_address").Find(&pools).Error; err != nil {
		return nil, types.NewDatabaseError("list pools", err)
	}
	return pools, nil
}

// SaveDeployments stores deployments and advances the scan cursor in one
// transaction. Known deployments are left untouched.
func (d Database) SaveDeployments(ctx context.Context, deployments []types.CollectedDeployment, scanHeight int64) error {
	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertDeployments(tx, deployments); err != nil {
			return err
		}
		seq := types.CollectedSeqInfo{Name: types.SeqInfoScanHeight, Sequence: scanHeight}
		return tx.Clauses(UpdateAllWhenConflict).Create(&seq).Error
	})
	if err != nil {
		return types.NewDatabaseError("save deployments", err)
	}
	return nil
}

// InsertDeployments stores deployments without moving the scan cursor.
func (d Database) InsertDeployments(ctx context.Context, deployments []types.CollectedDeployment) error {
	if err := insertDeployments(d.WithContext(ctx), deployments); err != nil {
		return types.NewDatabaseError("insert deployments", err)
	}
	return nil
}

func insertDeployments(tx *gorm.DB, deployments []types.CollectedDeployment) error {
	if len(deployments) == 0 {
		return nil
	}
	return tx.Clauses(DoNothingWhenConflict).Create(&deployments).Error
}

func (d Database) ListDeploymentsByOwner(ctx context.Context, owner string) ([]types.CollectedDeployment, error) {
	var deployments []types.CollectedDeployment
	err := d.WithContext(ctx).
		Where("owner_address = ?", owner).
		Order("height").
		Find(&deployments).Error
	if err != nil {
		return nil, types.NewDatabaseError("list deployments", err)
	}
	return deployments, nil
}

// GetSeqInfo returns the named cursor, zero when it was never set.
func (d Database) GetSeqInfo(ctx context.Context, name string) (int64, error) {
	var seq types.CollectedSeqInfo
	err := d.WithContext(ctx).Where("name = ?", name).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, types.NewDatabaseError("get seq info", err)
	}
	return seq.Sequence, nil
}
