package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup results reported by the cache tier.
const (
	LookupMemory  = "memory"
	LookupDurable = "durable"
	LookupMiss    = "miss"
)

// Compute outcomes reported by the aggregation service.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

var (
	// Cache tier
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggcache_lookups_total",
			Help: "Cache lookups by the layer that satisfied them (memory, durable, miss)",
		},
		[]string{"result"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggcache_memory_entries",
			Help: "Current number of envelopes held in the in-process layer",
		},
	)

	DurableErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggcache_durable_errors_total",
			Help: "Durable tier operations that failed and were degraded",
		},
		[]string{"operation"},
	)

	SweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aggcache_swept_entries_total",
			Help: "Expired entries removed from both layers by sweeps",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aggcache_breaker_state",
			Help: "Durable store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Aggregation service
	Computations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggcache_computations_total",
			Help: "Aggregation computations by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggcache_compute_duration_seconds",
			Help:    "Duration of primary aggregation computations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	CoalescedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aggcache_coalesced_requests_total",
			Help: "Requests that shared an in-flight computation for the same key",
		},
	)

	// Backfill
	BackfillCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggcache_backfill_refreshes_total",
			Help: "Backfill refreshes by aggregation type",
		},
		[]string{"type"},
	)

	// Record import
	RecordsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggcache_records_imported_total",
			Help: "Activity records received by the import endpoint, by outcome",
		},
		[]string{"outcome"},
	)
)
