package quoter

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/metrics"
	"github.com/walletfeed/chainfeed/sentry_integration"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/util/jsonrpc"
)

type QuotedPrice struct {
	Address               string   `json:"address"`
	AmountOut             *big.Int `json:"amount_out"`
	PriceInReferenceAsset float64  `json:"price"`
}

// Executor posts a whole quote batch to the configured EVM endpoint in one
// request.
type Executor struct {
	client *jsonrpc.Client
	cfg    *config.QuoterConfig
}

func NewExecutor(client *jsonrpc.Client, cfg *config.QuoterConfig) *Executor {
	return &Executor{client: client, cfg: cfg}
}

// ExecuteBatch returns the raw response body. The endpoint credential is
// resolved on every call, so a missing key surfaces as ENV_VAR here.
func (e *Executor) ExecuteBatch(ctx context.Context, requests []types.JSONRPCRequest) (json.RawMessage, error) {
	if e.cfg == nil {
		return nil, types.NewEnvVarError("EVM_RPC_URL")
	}
	endpoint, err := e.cfg.Endpoint()
	if err != nil {
		return nil, err
	}

	body, err := e.client.Post(ctx, endpoint, requests)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, types.NewMalformedResponseError("quote response is not JSON", nil)
	}
	return body, nil
}

type Quoter struct {
	params   QuoteParams
	decimals uint8
	executor *Executor
	logger   *slog.Logger
}

func New(cfg *config.Config, client *jsonrpc.Client, logger *slog.Logger) (*Quoter, error) {
	qc := cfg.GetQuoterConfig()
	var prefix string
	if chain := cfg.GetChainConfig(); chain != nil {
		prefix = chain.AddressPrefix
	}
	params, err := ParamsFromConfig(qc, prefix)
	if err != nil {
		return nil, err
	}

	decimals := uint8(config.DefaultReferenceAssetDecimals)
	if qc != nil {
		decimals = qc.ReferenceAssetDecimals
	}

	return &Quoter{
		params:   params,
		decimals: decimals,
		executor: NewExecutor(client, qc),
		logger:   logger.With("component", "quoter"),
	}, nil
}

func (q *Quoter) Params() QuoteParams {
	return q.params
}

// GetPrices quotes every token in one batch and returns prices in input order.
func (q *Quoter) GetPrices(ctx context.Context, tokens []string) ([]QuotedPrice, error) {
	if len(tokens) == 0 {
		return []QuotedPrice{}, nil
	}

	span, ctx := sentry_integration.StartSentrySpan(ctx, "quoteBatch", "Quoting token batch")
	span.SetData("tokens", strconv.Itoa(len(tokens)))
	defer span.Finish()

	start := time.Now()
	quoteMetrics := metrics.GetMetrics().Quote
	defer func() {
		quoteMetrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	prices, err := q.getPrices(ctx, tokens)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		quoteMetrics.QuotesTotal.WithLabelValues("error").Add(float64(len(tokens)))
		metrics.TrackStandardError("quoter", err)
		return nil, err
	}

	quoteMetrics.QuotesTotal.WithLabelValues("ok").Add(float64(len(prices)))
	q.logger.Debug("quoted batch", slog.Int("tokens", len(tokens)), slog.Duration("elapsed", time.Since(start)))
	return prices, nil
}

func (q *Quoter) getPrices(ctx context.Context, tokens []string) ([]QuotedPrice, error) {
	requests, err := BuildBatch(tokens, q.params)
	if err != nil {
		return nil, err
	}

	payload, err := q.executor.ExecuteBatch(ctx, requests)
	if err != nil {
		return nil, err
	}

	amounts, err := ParseBatch(payload, len(requests))
	if err != nil {
		return nil, err
	}

	prices := make([]QuotedPrice, len(amounts))
	for i, amount := range amounts {
		prices[i] = QuotedPrice{
			Address:               tokens[amount.RequestID-1],
			AmountOut:             amount.Amount,
			PriceInReferenceAsset: ToPrice(amount.Amount, q.decimals),
		}
	}
	return prices, nil
}
