package civiccompass

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of civiccompass_sdk_operations_total.
const (
	outcomeOK             = "ok"
	outcomeInvalidQuery   = "invalid_query"
	outcomeNotFound       = "not_found"
	outcomeNotLoaded      = "not_loaded"
	outcomeIndexUnavail   = "index_unavailable"
	outcomeInternalFailed = "error"
)

// outcome maps an operation error onto a bounded label set.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrInvalidQuery):
		return outcomeInvalidQuery
	case errors.Is(err, ErrChunkNotFound), errors.Is(err, ErrRecordNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrSessionNotLoaded):
		return outcomeNotLoaded
	case errors.Is(err, ErrIndexUnavailable):
		return outcomeIndexUnavail
	default:
		return outcomeInternalFailed
	}
}

// queryMetrics are the SDK's per-operation collectors.
type queryMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	results    *prometheus.HistogramVec
}

func newQueryMetrics(reg prometheus.Registerer) (*queryMetrics, error) {
	m := &queryMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civiccompass",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "civiccompass",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation latency, corpus reloads included.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"operation"}),
		results: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "civiccompass",
			Subsystem: "sdk",
			Name:      "results",
			Help:      "Hits returned by search, browse and separation.",
			Buckets:   []float64{0, 1, 3, 10, 25, 100, 500},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.results); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or swaps in the collector already registered under the
// same descriptor.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("civiccompass: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("civiccompass: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts SDK operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *queryMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newQueryMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	out := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, out).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	switch out {
	case outcomeOK:
		o.logger.Debug("operation completed", "op", op, "duration", dur)
	case outcomeInvalidQuery, outcomeNotFound:
		o.logger.Info("operation rejected", "op", op, "outcome", out, "error", err)
	default:
		o.logger.Warn("operation failed", "op", op, "outcome", out, "duration", dur, "error", err)
	}
}

// hits records how many results a successful query returned.
func (o *observer) hits(op string, n int) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.results.WithLabelValues(op).Observe(float64(n))
}
