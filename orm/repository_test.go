package orm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/walletfeed/chainfeed/orm/testutil"
	"github.com/walletfeed/chainfeed/types"
)

func TestSaveQuotesUpserts(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.SaveQuotes(ctx, []types.CollectedTokenQuote{
		{TokenAddress: "0xdai", AmountOut: "500", EthPrice: 0.0005, Timestamp: now},
		{TokenAddress: "0xwbtc", AmountOut: "30", EthPrice: 30, Timestamp: now},
	}))
	require.NoError(t, db.SaveQuotes(ctx, []types.CollectedTokenQuote{
		{TokenAddress: "0xdai", AmountOut: "600", EthPrice: 0.0006, Timestamp: now.Add(time.Minute)},
	}))

	quote, err := db.GetQuote(ctx, "0xdai")
	require.NoError(t, err)
	require.Equal(t, "600", quote.AmountOut)
	require.Equal(t, 0.0006, quote.EthPrice)
	require.True(t, now.Add(time.Minute).Equal(quote.Timestamp))

	quotes, err := db.ListQuotes(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	require.Equal(t, "0xdai", quotes[0].TokenAddress)

	require.NoError(t, db.SaveQuotes(ctx, nil))
}

func TestGetQuoteNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := db.GetQuote(context.Background(), "0xmissing")
	require.True(t, types.IsErrorType(err, types.ErrTypeNotFound), "got %v", err)
}

func TestReplacePools(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.ReplacePools(ctx, []types.CollectedDexPool{
		{TokenAddress: "0xaaaa", ZilReserve: "10", TokenReserve: "20", UpdatedAt: now},
		{TokenAddress: "0xbbbb", ZilReserve: "30", TokenReserve: "40", UpdatedAt: now},
	}))
	require.NoError(t, db.ReplacePools(ctx, []types.CollectedDexPool{
		{TokenAddress: "0xbbbb", ZilReserve: "31", TokenReserve: "41", UpdatedAt: now},
		{TokenAddress: "0xcccc", ZilReserve: "50", TokenReserve: "60", UpdatedAt: now},
	}))

	pools, err := db.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	require.Equal(t, "0xbbbb", pools[0].TokenAddress)
	require.Equal(t, "31", pools[0].ZilReserve)
	require.Equal(t, "0xcccc", pools[1].TokenAddress)

	require.NoError(t, db.ReplacePools(ctx, nil))
	pools, err = db.ListPools(ctx)
	require.NoError(t, err)
	require.Empty(t, pools)
}

func TestSaveDeploymentsAdvancesCursor(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	height, err := db.GetSeqInfo(ctx, types.SeqInfoScanHeight)
	require.NoError(t, err)
	require.Zero(t, height)

	deployment := types.CollectedDeployment{
		TxID:            "tx1",
		ContractAddress: "7793a8e8c09d189d4d421ce5bc5b3674656c5ac1",
		OwnerAddress:    "8885906da076a450138ff794796530a34b958b91",
		OwnerBech32:     "zil13zzeqmdqw6j9qyu07728jefs5d9etzu363sk2x",
		Height:          100,
	}
	require.NoError(t, db.SaveDeployments(ctx, []types.CollectedDeployment{deployment}, 100))

	// a rescan of the same block keeps the first record
	changed := deployment
	changed.ContractAddress = "ffff"
	require.NoError(t, db.SaveDeployments(ctx, []types.CollectedDeployment{changed}, 120))

	height, err = db.GetSeqInfo(ctx, types.SeqInfoScanHeight)
	require.NoError(t, err)
	require.Equal(t, int64(120), height)

	deployments, err := db.ListDeploymentsByOwner(ctx, deployment.OwnerAddress)
	require.NoError(t, err)
	require.Len(t, deployments, 1)
	require.Equal(t, deployment, deployments[0])

	none, err := db.ListDeploymentsByOwner(ctx, "0000")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestInsertDeploymentsKeepsCursor(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveDeployments(ctx, nil, 50))
	require.NoError(t, db.InsertDeployments(ctx, []types.CollectedDeployment{
		{TxID: "tx9", OwnerAddress: "aa", Height: 9},
	}))
	require.NoError(t, db.InsertDeployments(ctx, nil))

	height, err := db.GetSeqInfo(ctx, types.SeqInfoScanHeight)
	require.NoError(t, err)
	require.Equal(t, int64(50), height)

	deployments, err := db.ListDeploymentsByOwner(ctx, "aa")
	require.NoError(t, err)
	require.Len(t, deployments, 1)
}

func TestGetDBStats(t *testing.T) {
	db := testutil.NewTestDB(t)

	stats, err := db.GetDBStats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.MaxOpenConnections)
	require.Equal(t, 100, db.GetBatchSize())
}
