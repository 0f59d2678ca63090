package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "civiccompass"

// Search and corpus Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time to analyze, score and rank one query",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"mode"}, // "search" / "browse" / "separation"
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of ranked results per query before the render cap",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"mode"},
	)

	ChunkCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_cache_total",
			Help:      "Chunk cache lookups by tier and result",
		},
		[]string{"tier", "result"}, // tier: "memory" / "kv"; result: "hit" / "miss"
	)

	RecordsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Records in the active session",
		},
	)

	SessionReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_reloads_total",
			Help:      "Session loads by outcome",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search, cache and session metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(ChunkCacheTotal)
	prometheus.MustRegister(RecordsLoaded)
	prometheus.MustRegister(SessionReloadsTotal)
	searchMetricsRegistered = true
}

// SearchRecorder reports query and session outcomes to the package metrics.
type SearchRecorder struct{}

// ObserveQuery records one query's latency and ranked result count.
func (SearchRecorder) ObserveQuery(mode string, d time.Duration, results int) {
	SearchDuration.WithLabelValues(mode).Observe(d.Seconds())
	SearchResults.WithLabelValues(mode).Observe(float64(results))
}

// SessionLoaded records a load attempt; the record gauge only moves on success.
func (SearchRecorder) SessionLoaded(records int, err error) {
	if err != nil {
		SessionReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	SessionReloadsTotal.WithLabelValues("ok").Inc()
	RecordsLoaded.Set(float64(records))
}
