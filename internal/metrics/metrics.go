// Package metrics centralizes the pipeline's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters shared across the pipeline stages.
type Metrics struct {
	EventsPublished   *prometheus.CounterVec
	EventsConsumed    *prometheus.CounterVec
	ReconcileApplied  prometheus.Counter
	ReconcileSkipped  prometheus.Counter
	ReconcileFailed   prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	CacheErrors       prometheus.Counter
	UpdatesSuppressed prometheus.Counter
}

// New registers the pipeline counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facility_events_published_total",
			Help: "Events written to the facility log, by event type.",
		}, []string{"event_type"}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facility_events_consumed_total",
			Help: "Events delivered to the reconciler, by event type.",
		}, []string{"event_type"}),
		ReconcileApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facility_reconcile_applied_total",
			Help: "Events applied to the canonical store.",
		}),
		ReconcileSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facility_reconcile_skipped_total",
			Help: "Partial events skipped because the aggregate is unknown.",
		}),
		ReconcileFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facility_reconcile_failed_total",
			Help: "Events that failed to apply.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "search_cache_hits_total",
			Help: "Search requests served from the result cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "search_cache_misses_total",
			Help: "Search requests that fell through to the query engine.",
		}),
		CacheErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "search_cache_errors_total",
			Help: "Cache store failures; the engine answered directly.",
		}),
		UpdatesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facility_updates_suppressed_total",
			Help: "Observations suppressed by unchanged fingerprints.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.EventsPublished,
			m.EventsConsumed,
			m.ReconcileApplied,
			m.ReconcileSkipped,
			m.ReconcileFailed,
			m.CacheHits,
			m.CacheMisses,
			m.CacheErrors,
			m.UpdatesSuppressed,
		)
	}
	return m
}

// NewNop returns unregistered counters for tests and optional wiring.
func NewNop() *Metrics {
	return New(nil)
}
