package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/walletfeed/chainfeed/types"
)

func TestGetHandlerPattern(t *testing.T) {
	testcases := map[string]string{
		"":                    "root",
		"/":                   "root",
		"/health":             "health",
		"/v1/prices":          "prices",
		"/v1/prices/0xabc":    "prices",
		"/v1/address/zil1abc": "address",
		"/v1/dex/pools":       "dex",
		"/v1/":                "v1",
		"/metrics":            "other",
	}
	for path, expected := range testcases {
		require.Equal(t, expected, GetHandlerPattern(path), "path %q", path)
	}
}

func TestGetStatusClass(t *testing.T) {
	require.Equal(t, "2xx", GetStatusClass(200))
	require.Equal(t, "3xx", GetStatusClass(304))
	require.Equal(t, "4xx", GetStatusClass(404))
	require.Equal(t, "5xx", GetStatusClass(502))
	require.Equal(t, "other", GetStatusClass(101))
}

func TestTrackStandardError(t *testing.T) {
	counter := GetMetrics().Error.ErrorsTotal

	categories := GetMetrics().Error.CategoriesTotal

	before := testutil.ToFloat64(counter.WithLabelValues("quoter", string(types.ErrTypeHexDecode)))
	beforeCategory := testutil.ToFloat64(categories.WithLabelValues("quoter", string(types.CategoryMalformedResponse)))
	TrackStandardError("quoter", types.NewHexDecodeError(1, "0x", nil))
	require.Equal(t, before+1, testutil.ToFloat64(counter.WithLabelValues("quoter", string(types.ErrTypeHexDecode))))
	require.Equal(t, beforeCategory+1, testutil.ToFloat64(categories.WithLabelValues("quoter", string(types.CategoryMalformedResponse))))

	before = testutil.ToFloat64(counter.WithLabelValues("quoter", "unknown"))
	TrackStandardError("quoter", assertErr("plain"))
	require.Equal(t, before+1, testutil.ToFloat64(counter.WithLabelValues("quoter", "unknown")))
}

func TestSetComponentHealth(t *testing.T) {
	SetComponentHealth("worker", true)
	require.Equal(t, float64(1), testutil.ToFloat64(GetMetrics().Error.ComponentHealth.WithLabelValues("worker")))

	SetComponentHealth("worker", false)
	require.Equal(t, float64(0), testutil.ToFloat64(GetMetrics().Error.ComponentHealth.WithLabelValues("worker")))
}

func TestObserveAttempt(t *testing.T) {
	api := GetMetrics().ExternalAPI

	before := testutil.ToFloat64(api.RequestsTotal.WithLabelValues("https://rpc.test", "error"))
	api.ObserveAttempt("https://rpc.test", 0, 0)
	require.Equal(t, before+1, testutil.ToFloat64(api.RequestsTotal.WithLabelValues("https://rpc.test", "error")))

	before = testutil.ToFloat64(api.RequestsTotal.WithLabelValues("https://rpc.test", "429"))
	api.ObserveAttempt("https://rpc.test", 429, 0)
	require.Equal(t, before+1, testutil.ToFloat64(api.RequestsTotal.WithLabelValues("https://rpc.test", "429")))
}

func TestRegistryGathers(t *testing.T) {
	GetMetrics().ExternalAPI.ChunkFailuresTotal.Inc()

	families, err := Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["chainfeed_rpc_chunk_failures_total"])
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
