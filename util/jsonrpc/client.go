// Package jsonrpc sends JSON-RPC 2.0 batches over HTTP with request chunking
// and endpoint failover.
package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/semaphore"

	"github.com/walletfeed/chainfeed/metrics"
	"github.com/walletfeed/chainfeed/sentry_integration"
	"github.com/walletfeed/chainfeed/types"
)

const (
	DefaultChunkSize = 2
	DefaultTimeout   = 10 * time.Second
)

type Config struct {
	// Endpoints in priority order.
	Endpoints []string
	ChunkSize int
	// Timeout bounds every single HTTP attempt.
	Timeout time.Duration
	// StrictChunks fails the whole call when one chunk fails on every
	// endpoint instead of dropping that chunk's responses.
	StrictChunks bool
	// MaxConcurrent caps in-flight HTTP attempts across all callers; 0 means
	// no limit.
	MaxConcurrent int
}

// Client is safe for concurrent use. Its configuration is fixed at
// construction and it holds no per-call state.
type Client struct {
	endpoints []string
	chunkSize int
	timeout   time.Duration
	strict    bool
	limiter   *semaphore.Weighted
	http      *fiber.Client
	logger    *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	chunkSize := cfg.ChunkSize
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var limiter *semaphore.Weighted
	if cfg.MaxConcurrent > 0 {
		limiter = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}

	return &Client{
		endpoints: append([]string(nil), cfg.Endpoints...),
		chunkSize: chunkSize,
		timeout:   timeout,
		strict:    cfg.StrictChunks,
		limiter:   limiter,
		http:      fiber.AcquireClient(),
		logger:    logger.With("component", "jsonrpc"),
	}
}

// Close releases the underlying HTTP client. The Client must not be used afterwards.
func (c *Client) Close() {
	if c.http != nil {
		fiber.ReleaseClient(c.http)
		c.http = nil
	}
}

func (c *Client) Endpoints() []string {
	return append([]string(nil), c.endpoints...)
}

func (c *Client) ChunkSize() int {
	return c.chunkSize
}

// NewRequest builds a JSON-RPC 2.0 request. Params always serialize as an array.
func NewRequest(id int, method string, params ...any) types.JSONRPCRequest {
	if params == nil {
		params = []any{}
	}
	return types.JSONRPCRequest{
		JSONRPC: types.JSONRPCVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// Send executes requests as a series of chunked batches. Responses are
// returned in provider order per chunk, chunks in request order; callers
// correlate by id. A chunk that fails on every endpoint contributes nothing
// unless the client is strict.
func (c *Client) Send(ctx context.Context, requests []types.JSONRPCRequest) ([]types.JSONRPCResponse, error) {
	if len(requests) == 0 {
		return []types.JSONRPCResponse{}, nil
	}
	if len(c.endpoints) == 0 {
		return nil, types.NewAllProvidersDownError(0, errors.New("no endpoints configured"))
	}

	var (
		out     = make([]types.JSONRPCResponse, 0, len(requests))
		lastErr error
	)

	for idx, chunk := range Chunk(requests, c.chunkSize) {
		responses, err := c.sendChunk(ctx, chunk)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			lastErr = err
			metrics.GetMetrics().ExternalAPI.ChunkFailuresTotal.Inc()
			c.logger.Warn("batch chunk failed on every endpoint",
				slog.Int("chunk", idx),
				slog.Int("requests", len(chunk)),
				slog.Any("error", err))

			if c.strict {
				return nil, types.NewPartialBatchFailureError(idx, len(chunk), err)
			}
			continue
		}
		out = append(out, responses...)
	}

	if len(out) == 0 {
		err := types.NewAllProvidersDownError(len(c.endpoints), lastErr)
		sentry_integration.CaptureCurrentHubException(err, sentry.LevelError)
		return nil, err
	}

	return out, nil
}

// SendOne executes a single request and returns its response.
func (c *Client) SendOne(ctx context.Context, method string, params ...any) (types.JSONRPCResponse, error) {
	responses, err := c.Send(ctx, []types.JSONRPCRequest{NewRequest(1, method, params...)})
	if err != nil {
		return types.JSONRPCResponse{}, err
	}
	for _, res := range responses {
		if res.ID == 1 {
			return res, nil
		}
	}
	return types.JSONRPCResponse{}, types.NewMalformedResponseError(fmt.Sprintf("no response for %s", method), nil)
}

// sendChunk tries endpoints in priority order until one returns a usable batch.
func (c *Client) sendChunk(ctx context.Context, chunk []types.JSONRPCRequest) ([]types.JSONRPCResponse, error) {
	var lastErr error
	apiMetrics := metrics.GetMetrics().ExternalAPI
	apiMetrics.ChunkSize.Observe(float64(len(chunk)))

	for _, endpoint := range c.endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.Post(ctx, endpoint, chunk)
		if err != nil {
			lastErr = err
			apiMetrics.FailoversTotal.WithLabelValues(endpointLabel(endpoint)).Inc()
			c.logger.Debug("endpoint attempt failed", slog.String("endpoint", endpointLabel(endpoint)), slog.Any("error", err))
			continue
		}

		responses, err := decodeBatch(body)
		if err != nil {
			lastErr = err
			apiMetrics.FailoversTotal.WithLabelValues(endpointLabel(endpoint)).Inc()
			c.logger.Debug("endpoint returned unusable batch", slog.String("endpoint", endpointLabel(endpoint)), slog.Any("error", err))
			continue
		}

		for _, res := range responses {
			if res.Error != nil {
				c.logger.Warn("rpc error in batch response",
					slog.Int("id", res.ID),
					slog.Int("code", res.Error.Code),
					slog.String("message", res.Error.Message))
			}
		}
		return responses, nil
	}

	return nil, lastErr
}

// Post performs one attempt: a JSON POST of payload to endpoint bounded by the
// client timeout. Non-2xx statuses fail with HTTP_ERROR.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.limiter.Release(1)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	label := endpointLabel(endpoint)
	apiMetrics := metrics.GetMetrics().ExternalAPI
	apiMetrics.ConcurrentActive.Inc()
	defer apiMetrics.ConcurrentActive.Dec()

	start := time.Now()
	req := c.http.Post(endpoint).
		JSON(payload).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	code, body, errs := req.Timeout(timeout).Bytes()
	if err := errors.Join(errs...); err != nil {
		apiMetrics.ObserveAttempt(label, 0, time.Since(start))
		return nil, types.NewNetworkError(label, err)
	}
	apiMetrics.ObserveAttempt(label, code, time.Since(start))

	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return nil, types.NewHTTPError(label, code, truncate(string(body), 512))
	}
	return body, nil
}

func decodeBatch(body []byte) ([]types.JSONRPCResponse, error) {
	var responses []types.JSONRPCResponse
	if err := json.Unmarshal(body, &responses); err != nil {
		return nil, types.NewMalformedResponseError("batch response is not an array of responses", err)
	}
	if len(responses) == 0 {
		return nil, types.NewMalformedResponseError("batch response is empty", nil)
	}
	for i, res := range responses {
		if !res.Valid() {
			return nil, types.NewMalformedResponseError(fmt.Sprintf("element %d has neither result nor error", i), nil)
		}
	}
	return responses, nil
}

// IndexByID maps responses by id, rejecting duplicates.
func IndexByID(responses []types.JSONRPCResponse) (map[int]types.JSONRPCResponse, error) {
	byID := make(map[int]types.JSONRPCResponse, len(responses))
	for _, res := range responses {
		if _, ok := byID[res.ID]; ok {
			return nil, types.NewDuplicateIDError(res.ID)
		}
		byID[res.ID] = res
	}
	return byID, nil
}

// Chunk splits requests into contiguous groups of at most size, preserving order.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// endpointLabel strips paths and query strings, which may carry credentials,
// from an endpoint before it is logged or used as a metric label.
func endpointLabel(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Scheme + "://" + u.Host
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
