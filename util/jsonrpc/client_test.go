package jsonrpc

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletfeed/chainfeed/types"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoServer answers each request with its own id as result and counts calls.
func echoServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var requests []types.JSONRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&requests); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		responses := make([]map[string]any, 0, len(requests))
		for _, req := range requests {
			responses = append(responses, map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": req.ID})
		}
		_ = json.NewEncoder(w).Encode(responses)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func statusServer(t *testing.T, status int, body string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRequests(n int) []types.JSONRPCRequest {
	requests := make([]types.JSONRPCRequest, n)
	for i := range requests {
		requests[i] = NewRequest(i+1, "GetBalance", "addr")
	}
	return requests
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	c := NewClient(cfg, newTestLogger())
	t.Cleanup(c.Close)
	return c
}

func responseIDs(responses []types.JSONRPCResponse) []int {
	ids := make([]int, len(responses))
	for i, res := range responses {
		ids[i] = res.ID
	}
	return ids
}

func TestChunk(t *testing.T) {
	require.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Chunk([]int{1, 2, 3, 4, 5}, 2))
	require.Equal(t, [][]int{{1, 2, 3}}, Chunk([]int{1, 2, 3}, 10))
	require.Equal(t, [][]int{{1}, {2}}, Chunk([]int{1, 2}, 0))
	require.Empty(t, Chunk([]int{}, 2))
}

func TestNewRequestParamsAlwaysArray(t *testing.T) {
	body, err := json.Marshal(NewRequest(1, "GetBlockchainInfo"))
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","method":"GetBlockchainInfo","params":[],"id":1}`, string(body))
}

func TestSendChunksInOrder(t *testing.T) {
	var calls atomic.Int32
	srv := echoServer(t, &calls)
	c := newTestClient(t, Config{Endpoints: []string{srv.URL}, ChunkSize: 2})

	responses, err := c.Send(context.Background(), newRequests(5))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, responseIDs(responses))
	require.Equal(t, int32(3), calls.Load())
}

func TestSendEmpty(t *testing.T) {
	c := newTestClient(t, Config{})
	responses, err := c.Send(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, responses)
}

func TestSendNoEndpoints(t *testing.T) {
	c := newTestClient(t, Config{})
	_, err := c.Send(context.Background(), newRequests(1))
	require.True(t, types.IsErrorType(err, types.ErrTypeAllProvidersDown))
}

func TestSendFailover(t *testing.T) {
	testcases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"not json", http.StatusOK, "<html>"},
		{"empty array", http.StatusOK, "[]"},
		{"element without result or error", http.StatusOK, `[{"jsonrpc":"2.0","id":1}]`},
		{"object instead of array", http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":"0x1"}`},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			var badCalls, goodCalls atomic.Int32
			bad := statusServer(t, tc.status, tc.body, &badCalls)
			good := echoServer(t, &goodCalls)

			c := newTestClient(t, Config{Endpoints: []string{bad.URL, good.URL}, ChunkSize: 2})
			responses, err := c.Send(context.Background(), newRequests(3))
			require.NoError(t, err)
			require.Equal(t, []int{1, 2, 3}, responseIDs(responses))
			require.Equal(t, int32(2), badCalls.Load())
			require.Equal(t, int32(2), goodCalls.Load())
		})
	}
}

func TestSendStopsAtFirstUsableEndpoint(t *testing.T) {
	var firstCalls, secondCalls atomic.Int32
	first := echoServer(t, &firstCalls)
	second := echoServer(t, &secondCalls)

	c := newTestClient(t, Config{Endpoints: []string{first.URL, second.URL}, ChunkSize: 2})
	_, err := c.Send(context.Background(), newRequests(4))
	require.NoError(t, err)
	require.Equal(t, int32(2), firstCalls.Load())
	require.Zero(t, secondCalls.Load())
}

func TestSendAllProvidersDown(t *testing.T) {
	var calls atomic.Int32
	a := statusServer(t, http.StatusBadGateway, "", &calls)
	b := statusServer(t, http.StatusServiceUnavailable, "", &calls)

	c := newTestClient(t, Config{Endpoints: []string{a.URL, b.URL}, ChunkSize: 2})
	_, err := c.Send(context.Background(), newRequests(3))
	require.True(t, types.IsErrorType(err, types.ErrTypeAllProvidersDown), "got %v", err)
	require.True(t, types.IsErrorType(err, types.ErrTypeHTTP), "cause should be kept: %v", err)
	require.Equal(t, int32(4), calls.Load())
}

// partialServer fails every batch containing failID.
func partialServer(t *testing.T, failID int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var requests []types.JSONRPCRequest
		_ = json.NewDecoder(r.Body).Decode(&requests)
		responses := make([]map[string]any, 0, len(requests))
		for _, req := range requests {
			if req.ID == failID {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			responses = append(responses, map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": req.ID})
		}
		_ = json.NewEncoder(w).Encode(responses)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendDropsFailedChunk(t *testing.T) {
	srv := partialServer(t, 3)
	c := newTestClient(t, Config{Endpoints: []string{srv.URL}, ChunkSize: 2})

	responses, err := c.Send(context.Background(), newRequests(5))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 5}, responseIDs(responses))
}

func TestSendStrictChunks(t *testing.T) {
	srv := partialServer(t, 3)
	c := newTestClient(t, Config{Endpoints: []string{srv.URL}, ChunkSize: 2, StrictChunks: true})

	_, err := c.Send(context.Background(), newRequests(5))
	require.True(t, types.IsErrorType(err, types.ErrTypePartialBatchFailure), "got %v", err)
}

func TestSendKeepsRPCErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{Endpoints: []string{srv.URL}})
	responses, err := c.Send(context.Background(), newRequests(1))
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	require.Equal(t, -32601, responses[0].Error.Code)
}

func TestSendCancelled(t *testing.T) {
	var calls atomic.Int32
	srv := echoServer(t, &calls)
	c := newTestClient(t, Config{Endpoints: []string{srv.URL}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Send(ctx, newRequests(2))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls.Load())
}

func TestSendTimeoutFailsOver(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`[{"jsonrpc":"2.0","id":1,"result":1}]`))
	}))
	defer slow.Close()

	var calls atomic.Int32
	fast := echoServer(t, &calls)

	c := newTestClient(t, Config{Endpoints: []string{slow.URL, fast.URL}, Timeout: 100 * time.Millisecond})
	responses, err := c.Send(context.Background(), newRequests(1))
	require.NoError(t, err)
	require.Equal(t, []int{1}, responseIDs(responses))
	require.Equal(t, int32(1), calls.Load())
}

func TestPostRespectsMaxConcurrent(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{Endpoints: []string{srv.URL}, MaxConcurrent: 1})

	var g sync.WaitGroup
	for i := 0; i < 4; i++ {
		g.Add(1)
		go func() {
			defer g.Done()
			_, err := c.Post(context.Background(), srv.URL, newRequests(1))
			assert.NoError(t, err)
		}()
	}
	g.Wait()

	require.Equal(t, int32(1), peak.Load())
}

func TestSendOne(t *testing.T) {
	var calls atomic.Int32
	srv := echoServer(t, &calls)
	c := newTestClient(t, Config{Endpoints: []string{srv.URL}})

	res, err := c.SendOne(context.Background(), "GetBlockchainInfo")
	require.NoError(t, err)

	var result int
	require.NoError(t, res.Decode(&result))
	require.Equal(t, 1, result)
}

func TestIndexByID(t *testing.T) {
	byID, err := IndexByID([]types.JSONRPCResponse{{ID: 2}, {ID: 1}})
	require.NoError(t, err)
	require.Len(t, byID, 2)

	_, err = IndexByID([]types.JSONRPCResponse{{ID: 1}, {ID: 1}})
	require.True(t, types.IsErrorType(err, types.ErrTypeDuplicateID))
}

func TestEndpointLabel(t *testing.T) {
	require.Equal(t, "https://mainnet.infura.io", endpointLabel("https://mainnet.infura.io/v3/secret-key"))
	require.Equal(t, "http://127.0.0.1:8545", endpointLabel("http://127.0.0.1:8545/?token=abc"))
	require.Equal(t, "invalid", endpointLabel("::"))
}
