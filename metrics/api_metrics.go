package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	LatencyBuckets   = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	ChunkSizeBuckets = []float64{1, 2, 5, 10, 20, 50, 100}
)

// ExternalAPIMetrics covers outbound JSON-RPC traffic. Endpoint labels never
// carry paths or query strings.
type ExternalAPIMetrics struct {
	RequestsTotal      *prometheus.CounterVec
	Latency            *prometheus.HistogramVec
	ConcurrentActive   prometheus.Gauge
	FailoversTotal     *prometheus.CounterVec
	ChunkSize          prometheus.Histogram
	ChunkFailuresTotal prometheus.Counter
}

func NewExternalAPIMetrics() *ExternalAPIMetrics {
	return &ExternalAPIMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainfeed_external_api_requests_total",
				Help: "Total number of outbound RPC attempts by endpoint and status code",
			},
			[]string{"endpoint", "status_code"},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chainfeed_external_api_latency_seconds",
				Help:    "Outbound RPC attempt latency in seconds",
				Buckets: LatencyBuckets,
			},
			[]string{"endpoint"},
		),
		ConcurrentActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chainfeed_concurrent_requests_active",
				Help: "Number of outbound RPC attempts in flight",
			},
		),
		FailoversTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainfeed_rpc_failovers_total",
				Help: "Total number of chunks moved past an endpoint that failed them",
			},
			[]string{"endpoint"},
		),
		ChunkSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chainfeed_rpc_chunk_size",
				Help:    "Number of requests per batch chunk",
				Buckets: ChunkSizeBuckets,
			},
		),
		ChunkFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chainfeed_rpc_chunk_failures_total",
				Help: "Total number of batch chunks that failed on every endpoint",
			},
		),
	}
}

func (e *ExternalAPIMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		e.RequestsTotal,
		e.Latency,
		e.ConcurrentActive,
		e.FailoversTotal,
		e.ChunkSize,
		e.ChunkFailuresTotal,
	)
}

// ObserveAttempt records one finished attempt. A zero status means the request
// never got a response.
func (e *ExternalAPIMetrics) ObserveAttempt(endpoint string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	e.RequestsTotal.WithLabelValues(endpoint, code).Inc()
	e.Latency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
