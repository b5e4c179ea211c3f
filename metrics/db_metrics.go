package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultDBStatsInterval = 10 * time.Second

var (
	DBLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}
	RowCountBuckets  = []float64{1, 10, 50, 100, 500, 1000, 5000}
)

// DatabaseMetrics groups database-related metrics
type DatabaseMetrics struct {
	ConnectionsActive  prometheus.Gauge
	ConnectionsIdle    prometheus.Gauge
	ConnectionsMaxOpen prometheus.Gauge
	QueriesTotal       *prometheus.CounterVec
	QueryDuration      *prometheus.HistogramVec
	RowsAffected       *prometheus.HistogramVec
}

func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chainfeed_db_connections_active",
			Help: "Number of active database connections",
		}),
		ConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chainfeed_db_connections_idle",
			Help: "Number of idle database connections",
		}),
		ConnectionsMaxOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chainfeed_db_connections_max_open",
			Help: "Maximum number of open database connections",
		}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chainfeed_db_queries_total",
			Help: "Total number of database queries",
		}, []string{"operation", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chainfeed_db_query_duration_seconds",
			Help:    "Database query execution time in seconds",
			Buckets: DBLatencyBuckets,
		}, []string{"operation", "table"}),
		RowsAffected: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chainfeed_db_rows_affected",
			Help:    "Number of rows affected by database operations",
			Buckets: RowCountBuckets,
		}, []string{"operation"}),
	}
}

func (d *DatabaseMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		d.ConnectionsActive,
		d.ConnectionsIdle,
		d.ConnectionsMaxOpen,
		d.QueriesTotal,
		d.QueryDuration,
		d.RowsAffected,
	)
}

// DBStatsUpdater periodically copies connection pool stats into gauges
type DBStatsUpdater struct {
	provider DBStatsProvider
	logger   *slog.Logger
	ticker   *time.Ticker
	done     chan struct{}
	metrics  *DatabaseMetrics
}

func NewDBStatsUpdater(provider DBStatsProvider, logger *slog.Logger, metrics *DatabaseMetrics) *DBStatsUpdater {
	return &DBStatsUpdater{
		provider: provider,
		logger:   logger.With("component", "db_stats"),
		ticker:   time.NewTicker(DefaultDBStatsInterval),
		done:     make(chan struct{}),
		metrics:  metrics,
	}
}

func (u *DBStatsUpdater) Start() {
	u.updateStats()
	go u.run()
}

func (u *DBStatsUpdater) Stop() {
	u.ticker.Stop()
	close(u.done)
}

func (u *DBStatsUpdater) run() {
	for {
		select {
		case <-u.ticker.C:
			u.updateStats()
		case <-u.done:
			return
		}
	}
}

func (u *DBStatsUpdater) updateStats() {
	stats, err := u.provider.GetDBStats()
	if err != nil {
		u.logger.Error("failed to get database stats", slog.Any("error", err))
		return
	}

	u.metrics.ConnectionsActive.Set(float64(stats.InUse))
	u.metrics.ConnectionsIdle.Set(float64(stats.Idle))
	u.metrics.ConnectionsMaxOpen.Set(float64(stats.MaxOpenConnections))
}
