package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// endpoints names the API routes for metric labels. Unlisted patterns report as "other".
var endpoints = map[string]string{
	"/search":                    "search",
	"/browse":                    "browse",
	"/categories":                "categories",
	"/separation":                "separation",
	"/utilities":                 "utilities",
	"/pins":                      "pins",
	"/records/{corpus}/{anchor}": "record",
	"/verbatim":                  "verbatim",
	"/reader":                    "reader",
	"/suggestions":               "suggestions",
	"/drawings":                  "drawings",
	"/snippet":                   "snippet",
	"/admin/reload":              "reload",
	"/health":                    "health",
	"/metrics":                   "metrics",
}

// API request metrics, labelled by endpoint name rather than raw path.
var (
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency by endpoint",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"endpoint", "method"},
	)

	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by endpoint, method and status class",
		},
		[]string{"endpoint", "method", "status_class"}, // status_class: "2xx" / "4xx" / "5xx"
	)

	APIResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "response_size_bytes",
			Help:      "Response body size by endpoint",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B .. 4MiB
		},
		[]string{"endpoint"},
	)

	APIInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_in_flight",
			Help:      "API requests currently being served",
		},
	)
)

var apiMetricsRegistered bool

// RegisterAPIMetrics registers the API request metrics. Must be called once from main.
func RegisterAPIMetrics() {
	if apiMetricsRegistered {
		return
	}
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIResponseBytes)
	prometheus.MustRegister(APIInFlight)
	apiMetricsRegistered = true
}

// Middleware records latency, outcome and response size per API endpoint.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			APIInFlight.Inc()
			defer APIInFlight.Dec()

			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			// Route pattern is only complete after the router has matched.
			name := endpointName(chi.RouteContext(r.Context()))
			APIRequestDuration.WithLabelValues(name, r.Method).Observe(time.Since(start).Seconds())
			APIRequestsTotal.WithLabelValues(name, r.Method, statusClass(ww.status)).Inc()
			APIResponseBytes.WithLabelValues(name).Observe(float64(ww.bytes))
		})
	}
}

func endpointName(rctx *chi.Context) string {
	if rctx == nil {
		return "other"
	}
	if name, ok := endpoints[rctx.RoutePattern()]; ok {
		return name
	}
	return "other"
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}

// statusWriter captures the status code and body size.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err //nolint:wrapcheck // passthrough to the underlying writer
}
