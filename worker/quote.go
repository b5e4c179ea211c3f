package worker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"golang.org/x/sync/errgroup"

	"github.com/walletfeed/chainfeed/cache"
	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/metrics"
	"github.com/walletfeed/chainfeed/quoter"
	"github.com/walletfeed/chainfeed/sentry_integration"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/util/jsonrpc"
)

const QuoteWorkerName = "quote"

type PriceSource interface {
	GetPrices(ctx context.Context, tokens []string) ([]quoter.QuotedPrice, error)
}

type QuoteStore interface {
	SaveQuotes(ctx context.Context, quotes []types.CollectedTokenQuote) error
}

// PriceCache is keyed by lower-cased token address.
type PriceCache = cache.TTLCache[string, quoter.QuotedPrice]

func NewPriceCache(cfg *config.Config) *PriceCache {
	return cache.NewTTL[string, quoter.QuotedPrice](cfg.GetCacheSize(), cfg.GetCacheTTL())
}

func CacheKey(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

type QuoteWorker struct {
	cfg    *config.Config
	source PriceSource
	store  QuoteStore
	cache  *PriceCache
	logger *slog.Logger
}

// NewQuoteWorker builds a worker; store may be nil, in which case quotes only
// reach the cache.
func NewQuoteWorker(cfg *config.Config, source PriceSource, store QuoteStore, priceCache *PriceCache, logger *slog.Logger) *QuoteWorker {
	return &QuoteWorker{
		cfg:    cfg,
		source: source,
		store:  store,
		cache:  priceCache,
		logger: logger.With("component", "quote_worker"),
	}
}

func (w *QuoteWorker) Run(ctx context.Context) error {
	return runEvery(ctx, QuoteWorkerName, w.cfg.GetPollingInterval(), w.logger, w.RunOnce)
}

// RunOnce quotes every configured token and returns how many non-zero prices
// were stored. It fails only when no batch succeeded or persisting failed.
func (w *QuoteWorker) RunOnce(ctx context.Context) (int, error) {
	transaction, ctx := sentry_integration.StartSentryTransaction(ctx, "quoteRefresh", "Refreshing token quotes")
	defer transaction.Finish()

	qc := w.cfg.GetQuoterConfig()
	tokens := UniqueTokens(qc.Tokens)
	if len(tokens) == 0 {
		return 0, nil
	}

	var (
		mu       sync.Mutex
		prices   []quoter.QuotedPrice
		failures []error
	)

	var g errgroup.Group
	g.SetLimit(max(w.cfg.GetMaxConcurrentRequests(), 1))

	for _, batch := range jsonrpc.Chunk(tokens, max(qc.BatchSize, 1)) {
		batch := batch
		g.Go(func() error {
			quoted, err := w.source.GetPrices(ctx, batch)

			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				w.logger.Warn("quote batch failed", slog.Int("tokens", len(batch)), slog.Any("error", err))
				return nil
			}
			prices = append(prices, quoted...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(prices) == 0 && len(failures) > 0 {
		err := errors.Join(failures...)
		sentry_integration.CaptureCurrentHubException(err, sentry.LevelError)
		return 0, err
	}

	now := time.Now().UTC()
	rows := make([]types.CollectedTokenQuote, 0, len(prices))
	for _, price := range prices {
		if price.AmountOut == nil || price.AmountOut.Sign() == 0 {
			w.logger.Debug("dropping zero quote", slog.String("token", price.Address))
			continue
		}
		w.cache.Set(CacheKey(price.Address), price)
		rows = append(rows, types.CollectedTokenQuote{
			TokenAddress: CacheKey(price.Address),
			AmountOut:    price.AmountOut.String(),
			EthPrice:     price.PriceInReferenceAsset,
			Timestamp:    now,
		})
	}

	if w.store != nil {
		if err := w.store.SaveQuotes(ctx, rows); err != nil {
			metrics.TrackStandardError(QuoteWorkerName, err)
			return 0, err
		}
	}

	metrics.GetMetrics().Quote.LastRefreshUnixTime.Set(float64(now.Unix()))
	return len(rows), nil
}

// UniqueTokens drops blanks and case-insensitive duplicates, keeping the
// first spelling of each token.
func UniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		key := CacheKey(token)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, token)
	}
	return out
}
