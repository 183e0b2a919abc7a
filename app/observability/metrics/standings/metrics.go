package standingsmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StandingsMetrics records service level measurements for the standings engine.
type StandingsMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, d time.Duration)

	RecordCacheHit(ctx context.Context, kind string)
	RecordCacheMiss(ctx context.Context, kind string)
	RecordInvalidation(ctx context.Context, source string)
	RecordSubmissionsScanned(ctx context.Context, kind string, n int)
	RecordBuildDuration(ctx context.Context, kind string, d time.Duration)
}

type prometheusMetrics struct {
	attempts    *prometheus.CounterVec
	successes   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	cache       *prometheus.CounterVec
	invalidated *prometheus.CounterVec
	scanned     *prometheus.CounterVec
	builds      *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the standings collectors on registerer.
func NewPrometheusMetrics(registerer prometheus.Registerer, namespace string) StandingsMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "standings", Name: "operation_attempts_total",
			Help: "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "standings", Name: "operation_success_total",
			Help: "Service operations that returned without error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "standings", Name: "operation_failure_total",
			Help: "Service operations that returned an error or panicked.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "standings", Name: "operation_duration_seconds",
			Help:    "Service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "standings", Name: "cache_lookups_total",
			Help: "Rank list cache lookups by result.",
		}, []string{"kind", "result"}),
		invalidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "standings", Name: "invalidations_total",
			Help: "Contest invalidations by notification source.",
		}, []string{"source"}),
		scanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "standings", Name: "submissions_scanned_total",
			Help: "Submissions read from the feed while building.",
		}, []string{"kind"}),
		builds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "standings", Name: "build_duration_seconds",
			Help:    "Time spent scanning and building one view.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"kind"}),
	}
	registerer.MustRegister(m.attempts, m.successes, m.failures, m.durations, m.cache, m.invalidated, m.scanned, m.builds)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordCacheHit(_ context.Context, kind string) {
	m.cache.WithLabelValues(kind, "hit").Inc()
}

func (m *prometheusMetrics) RecordCacheMiss(_ context.Context, kind string) {
	m.cache.WithLabelValues(kind, "miss").Inc()
}

func (m *prometheusMetrics) RecordInvalidation(_ context.Context, source string) {
	m.invalidated.WithLabelValues(source).Inc()
}

func (m *prometheusMetrics) RecordSubmissionsScanned(_ context.Context, kind string, n int) {
	m.scanned.WithLabelValues(kind).Add(float64(n))
}

func (m *prometheusMetrics) RecordBuildDuration(_ context.Context, kind string, d time.Duration) {
	m.builds.WithLabelValues(kind).Observe(d.Seconds())
}
