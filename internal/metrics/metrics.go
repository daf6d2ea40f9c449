// Package metrics declares the Prometheus collectors shared by the engine and
// its Redis client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redis
var (
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videorank_redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videorank_redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videorank_redis_connection_errors_total",
			Help: "Total Redis dial failures",
		},
	)

	// CircuitBreakerState is 0=closed, 1=half-open, 2=open.
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videorank_redis_circuit_breaker_state",
			Help: "Current Redis circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videorank_redis_circuit_breaker_state_changes_total",
			Help: "Redis circuit breaker transitions by new state",
		},
		[]string{"state"},
	)
)

// Ranking engine
var (
	// VoteTransitions counts vote/unvote calls by direction and result
	// (applied, noop, not_found, error).
	VoteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videorank_vote_transitions_total",
			Help: "Vote and unvote calls by direction and result",
		},
		[]string{"direction", "result"},
	)

	VideosCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videorank_videos_created_total",
			Help: "Videos created through the engine",
		},
	)

	RankedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videorank_ranked_reads_total",
			Help: "Paginated ranked reads by index",
		},
		[]string{"index"},
	)

	HotnessRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "videorank_hotness_refresh_duration_seconds",
			Help:    "Duration of full hot index refreshes",
			Buckets: prometheus.DefBuckets,
		},
	)

	HotnessRefreshed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videorank_hotness_refreshed_entries_total",
			Help: "Hot index entries rewritten by refreshes",
		},
	)
)
