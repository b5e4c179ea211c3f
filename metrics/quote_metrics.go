package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	QuoteLatencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}
)

// QuoteMetrics groups quote protocol and refresh worker metrics
type QuoteMetrics struct {
	QuotesTotal         *prometheus.CounterVec
	BatchDuration       prometheus.Histogram
	RefreshRunsTotal    *prometheus.CounterVec
	LastRefreshUnixTime prometheus.Gauge
	CurrentScanHeight   prometheus.Gauge
}

// NewQuoteMetrics creates and returns quote metrics
func NewQuoteMetrics() *QuoteMetrics {
	return &QuoteMetrics{
		QuotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainfeed_quotes_total",
				Help: "Total number of token quotes by outcome",
			},
			[]string{"outcome"}, // "ok", "error"
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chainfeed_quote_batch_duration_seconds",
				Help:    "Time spent building, executing and parsing one quote batch",
				Buckets: QuoteLatencyBuckets,
			},
		),
		RefreshRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainfeed_refresh_runs_total",
				Help: "Total number of refresh worker runs by status",
			},
			[]string{"worker", "status"},
		),
		LastRefreshUnixTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chainfeed_last_refresh_timestamp_seconds",
				Help: "Unix time of the last successful quote refresh",
			},
		),
		CurrentScanHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chainfeed_current_scan_height",
				Help: "Last tx block scanned for contract deployments",
			},
		),
	}
}

// Register registers all quote metrics with the given registry
func (q *QuoteMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		q.QuotesTotal,
		q.BatchDuration,
		q.RefreshRunsTotal,
		q.LastRefreshUnixTime,
		q.CurrentScanHeight,
	)
}
