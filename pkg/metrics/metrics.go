package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dca_simulations_total",
		Help: "Total number of DCA simulations",
	}, []string{"status"})

	SimulationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dca_simulation_duration_seconds",
		Help:    "Duration of DCA simulations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	BacktestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtest_runs_total",
		Help: "Total number of randomized backtest runs",
	}, []string{"asset"})

	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_requests_total",
		Help: "Total number of market data fetch requests",
	}, []string{"source", "status"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	})

	DatabaseQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "database_queries_total",
		Help: "Total number of database queries",
	}, []string{"query_type", "status"})

	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "database_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query_type"})
)

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}

func RecordSimulation(status string) {
	SimulationsTotal.WithLabelValues(status).Inc()
}

func RecordBacktest(asset string, runs int) {
	BacktestRuns.WithLabelValues(asset).Add(float64(runs))
}

func RecordFetch(source, status string) {
	FetchRequests.WithLabelValues(source, status).Inc()
}

func RecordDatabaseQuery(queryType, status string) {
	DatabaseQueries.WithLabelValues(queryType, status).Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
