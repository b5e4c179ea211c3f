package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/quoter"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/util/jsonrpc"
	"github.com/walletfeed/chainfeed/zilliqa"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(tokens []string, batchSize int) *config.Config {
	cfg := &config.Config{}
	cfg.SetQuoterConfig(&config.QuoterConfig{Tokens: tokens, BatchSize: batchSize})
	cfg.SetChainConfig(&config.ChainConfig{DexContract: config.DefaultDexContract})
	cfg.SetMaxConcurrentRequests(2)
	cfg.SetCacheSettings(100, time.Minute)
	cfg.SetPollingInterval(10 * time.Millisecond)
	return cfg
}

type fakeSource struct {
	mu      sync.Mutex
	batches [][]string
	fail    map[string]bool
	zero    map[string]bool
}

func (f *fakeSource) GetPrices(_ context.Context, tokens []string) ([]quoter.QuotedPrice, error) {
	f.mu.Lock()
	f.batches = append(f.batches, tokens)
	f.mu.Unlock()

	prices := make([]quoter.QuotedPrice, 0, len(tokens))
	for _, token := range tokens {
		if f.fail[token] {
			return nil, types.NewAllProvidersDownError(1, nil)
		}
		amount := big.NewInt(2)
		if f.zero[token] {
			amount = big.NewInt(0)
		}
		prices = append(prices, quoter.QuotedPrice{Address: token, AmountOut: amount, PriceInReferenceAsset: 2})
	}
	return prices, nil
}

type fakeQuoteStore struct {
	saved []types.CollectedTokenQuote
	err   error
}

func (f *fakeQuoteStore) SaveQuotes(_ context.Context, quotes []types.CollectedTokenQuote) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, quotes...)
	return nil
}

func savedTokens(quotes []types.CollectedTokenQuote) []string {
	tokens := make([]string, len(quotes))
	for i, q := range quotes {
		tokens[i] = q.TokenAddress
	}
	sort.Strings(tokens)
	return tokens
}

func TestUniqueTokens(t *testing.T) {
	require.Equal(t,
		[]string{"0xAA", "0xbb"},
		UniqueTokens([]string{" 0xAA", "", "0xbb", "0xaa", "  "}))
}

func TestQuoteWorkerRunOnce(t *testing.T) {
	cfg := newTestConfig([]string{"0xa", "0xB", "0xc", "0xd", "0xe"}, 2)
	source := &fakeSource{zero: map[string]bool{"0xd": true}}
	store := &fakeQuoteStore{}
	priceCache := NewPriceCache(cfg)

	w := NewQuoteWorker(cfg, source, store, priceCache, newTestLogger())
	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Len(t, source.batches, 3)

	require.Equal(t, []string{"0xa", "0xb", "0xc", "0xe"}, savedTokens(store.saved))

	price, ok := priceCache.Get("0xb")
	require.True(t, ok)
	require.Equal(t, "0xB", price.Address)

	_, ok = priceCache.Get("0xd")
	require.False(t, ok)
}

func TestQuoteWorkerFailedBatchDoesNotAbortOthers(t *testing.T) {
	cfg := newTestConfig([]string{"0xa", "0xb", "0xc", "0xd"}, 2)
	source := &fakeSource{fail: map[string]bool{"0xa": true}}
	store := &fakeQuoteStore{}

	w := NewQuoteWorker(cfg, source, store, NewPriceCache(cfg), newTestLogger())
	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"0xc", "0xd"}, savedTokens(store.saved))
}

func TestQuoteWorkerAllBatchesFail(t *testing.T) {
	cfg := newTestConfig([]string{"0xa", "0xb"}, 1)
	source := &fakeSource{fail: map[string]bool{"0xa": true, "0xb": true}}

	w := NewQuoteWorker(cfg, source, nil, NewPriceCache(cfg), newTestLogger())
	_, err := w.RunOnce(context.Background())
	require.True(t, types.IsErrorType(err, types.ErrTypeAllProvidersDown), "got %v", err)
}

func TestQuoteWorkerStoreFailure(t *testing.T) {
	cfg := newTestConfig([]string{"0xa"}, 1)
	store := &fakeQuoteStore{err: types.NewDatabaseError("save quotes", errors.New("disk full"))}

	w := NewQuoteWorker(cfg, &fakeSource{}, store, NewPriceCache(cfg), newTestLogger())
	_, err := w.RunOnce(context.Background())
	require.True(t, types.IsErrorType(err, types.ErrTypeDatabase))
}

func TestQuoteWorkerWithoutStore(t *testing.T) {
	cfg := newTestConfig([]string{"0xa"}, 1)
	priceCache := NewPriceCache(cfg)

	w := NewQuoteWorker(cfg, &fakeSource{}, nil, priceCache, newTestLogger())
	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, priceCache.Len())
}

type countingSource struct {
	calls atomic.Int32
}

func (c *countingSource) GetPrices(_ context.Context, tokens []string) ([]quoter.QuotedPrice, error) {
	c.calls.Add(1)
	return []quoter.QuotedPrice{}, nil
}

func TestQuoteWorkerRunStopsOnCancel(t *testing.T) {
	cfg := newTestConfig([]string{"0xa"}, 1)
	source := &countingSource{}
	w := NewQuoteWorker(cfg, source, nil, NewPriceCache(cfg), newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return source.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

type fakePools struct {
	pools map[string]zilliqa.Reserves
	err   error
}

func (f fakePools) Pools(context.Context, string) (map[string]zilliqa.Reserves, error) {
	return f.pools, f.err
}

type cancellingSource struct {
	cancel context.CancelFunc
}

func (c cancellingSource) GetPrices(ctx context.Context, _ []string) ([]quoter.QuotedPrice, error) {
	c.cancel()
	return nil, ctx.Err()
}

func TestQuoteWorkerRunOnceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeQuoteStore{}
	cfg := newTestConfig([]string{"0xa", "0xb", "0xc"}, 1)
	w := NewQuoteWorker(cfg, cancellingSource{cancel: cancel}, store, NewPriceCache(cfg), newTestLogger())

	n, err := w.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, n)
	require.Empty(t, store.saved)
}

type fakePoolStore struct {
	rows []types.CollectedDexPool
}

func (f *fakePoolStore) ReplacePools(_ context.Context, rows []types.CollectedDexPool) error {
	f.rows = rows
	return nil
}

func TestPoolWorkerRunOnce(t *testing.T) {
	cfg := newTestConfig(nil, 1)
	store := &fakePoolStore{}
	source := fakePools{pools: map[string]zilliqa.Reserves{
		"0xbb": {Zil: big.NewInt(3), Token: big.NewInt(4)},
		"0xaa": {Zil: big.NewInt(1), Token: big.NewInt(2)},
	}}

	n, err := NewPoolWorker(cfg, source, store, newTestLogger()).RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "0xaa", store.rows[0].TokenAddress)
	require.Equal(t, "1", store.rows[0].ZilReserve)
	require.Equal(t, "4", store.rows[1].TokenReserve)

	_, err = NewPoolWorker(cfg, fakePools{err: types.NewAllProvidersDownError(3, nil)}, store, newTestLogger()).RunOnce(context.Background())
	require.True(t, types.IsErrorType(err, types.ErrTypeAllProvidersDown))
}

type fakeChain struct {
	numBlocks uint64
	scanned   [][]uint64
}

func (f *fakeChain) LatestTxBlock(context.Context) (uint64, error) {
	return f.numBlocks, nil
}

func (f *fakeChain) ScanDeployments(_ context.Context, blocks []uint64) ([]zilliqa.Deployment, error) {
	f.scanned = append(f.scanned, blocks)
	return []zilliqa.Deployment{{TxID: "tx", Height: blocks[0], OwnerAddress: "owner"}}, nil
}

func (f *fakeChain) ResolveContracts(_ context.Context, deployments []zilliqa.Deployment) ([]zilliqa.Deployment, error) {
	for i := range deployments {
		deployments[i].ContractAddress = "contract"
	}
	return deployments, nil
}

type fakeDeploymentStore struct {
	cursor int64
	rows   []types.CollectedDeployment
}

func (f *fakeDeploymentStore) GetSeqInfo(context.Context, string) (int64, error) {
	return f.cursor, nil
}

func (f *fakeDeploymentStore) SaveDeployments(_ context.Context, rows []types.CollectedDeployment, height int64) error {
	f.rows = append(f.rows, rows...)
	f.cursor = height
	return nil
}

func TestDeploymentScannerRunOnce(t *testing.T) {
	cfg := newTestConfig(nil, 1)
	chain := &fakeChain{numBlocks: 1000}
	store := &fakeDeploymentStore{}
	scanner := NewDeploymentScanner(cfg, chain, store, 10, newTestLogger())

	// first pass starts maxBlocks behind the head
	n, err := scanner.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, uint64(990), chain.scanned[0][0])
	require.Len(t, chain.scanned[0], 10)
	require.Equal(t, int64(999), store.cursor)
	require.Equal(t, "contract", store.rows[0].ContractAddress)
	require.Equal(t, int64(990), store.rows[0].Height)

	// caught up
	n, err = scanner.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, chain.scanned, 1)

	// new blocks arrive
	chain.numBlocks = 1003
	_, err = scanner.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uint64{1000, 1001, 1002}, chain.scanned[1])
	require.Equal(t, int64(1002), store.cursor)
}

func TestScanRangeEmpty(t *testing.T) {
	scanner := NewDeploymentScanner(newTestConfig(nil, 1), &fakeChain{}, &fakeDeploymentStore{}, 0, newTestLogger())
	deployments, err := scanner.ScanRange(context.Background(), 5, 4)
	require.NoError(t, err)
	require.Empty(t, deployments)
}

func TestDeploymentScannerKeepsCursorOnFailedChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var requests []types.JSONRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&requests); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		responses := make([]map[string]any, 0, len(requests))
		for _, req := range requests {
			res := map[string]any{"jsonrpc": "2.0", "id": req.ID}
			switch req.Method {
			case zilliqa.MethodGetBlockchainInfo:
				res["result"] = map[string]any{"NumTxBlocks": "4"}
			case zilliqa.MethodGetTxnBodiesForTxBlock:
				if req.Params[0] == "2" || req.Params[0] == "3" {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				res["result"] = []any{}
			default:
				res["error"] = map[string]any{"code": -32601, "message": "method not found"}
			}
			responses = append(responses, res)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(responses)
	}))
	t.Cleanup(srv.Close)

	logger := newTestLogger()
	client := jsonrpc.NewClient(jsonrpc.Config{
		Endpoints: []string{srv.URL},
		ChunkSize: 2,
		Timeout:   5 * time.Second,
	}, logger)
	t.Cleanup(client.Close)

	store := &fakeDeploymentStore{}
	scanner := NewDeploymentScanner(newTestConfig(nil, 1), zilliqa.NewReader(client, "zil", logger), store, 10, logger)

	n, err := scanner.RunOnce(context.Background())
	require.True(t, types.IsErrorType(err, types.ErrTypePartialBatchFailure), "got %v", err)
	require.Zero(t, n)
	require.Zero(t, store.cursor)
	require.Empty(t, store.rows)
}
