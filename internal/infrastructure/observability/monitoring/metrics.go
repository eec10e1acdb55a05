// Package monitoring exposes the Prometheus collectors of the delta engine.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "brandpulse"

var (
	// SnapshotLookupsTotal counts memory-tier lookups by outcome:
	// hit, miss, coalesced.
	SnapshotLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_lookups_total",
			Help:      "Memory tier snapshot lookups by outcome.",
		},
		[]string{"outcome"},
	)

	// SharedCacheRoundTripsTotal counts GET/MGET calls against the shared cache.
	SharedCacheRoundTripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shared_cache_round_trips_total",
			Help:      "Shared cache round trips by command.",
		},
		[]string{"command"},
	)

	// SharedCacheErrorsTotal counts degraded shared cache reads by kind:
	// unavailable, malformed.
	SharedCacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shared_cache_errors_total",
			Help:      "Shared cache reads treated as misses, by error kind.",
		},
		[]string{"kind"},
	)

	// InconsistentSnapshotsTotal counts snapshots bypassed by the consistency guard.
	InconsistentSnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inconsistent_snapshots_total",
			Help:      "Cached snapshots rejected because zero orders carried a non-zero conversion rate.",
		},
	)

	// SnapshotEvictionsTotal counts entries removed by the cleanup worker.
	SnapshotEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_evictions_total",
			Help:      "Expired memory tier entries purged by the cleanup worker.",
		},
	)

	// DeltaComputationsTotal counts delta results by path: cache, aggregation.
	DeltaComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delta_computations_total",
			Help:      "Delta computations by serving path.",
		},
		[]string{"path"},
	)

	// AggregationQueryDurationSeconds is the latency of tenant aggregation queries.
	AggregationQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_query_duration_seconds",
			Help:      "Tenant aggregation query duration in seconds, by source table.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"source"},
	)

	// OperationDurationSeconds is the latency of tracked operations.
	OperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of tracked service operations, by operation and outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"operation", "outcome"},
	)

	// SnapshotsWarmedTotal counts snapshots written to the shared cache.
	SnapshotsWarmedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_warmed_total",
			Help:      "Daily snapshots written to the shared cache.",
		},
	)
)
