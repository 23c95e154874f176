package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActivityCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_activity_completed_total",
			Help: "Total number of activities completed",
		},
		[]string{"activity"},
	)

	ActivityFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_activity_failed_total",
			Help: "Total number of activities that exhausted retries",
		},
		[]string{"activity", "error_code"},
	)

	ActivityRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_activity_retries_total",
			Help: "Total number of activity attempt retries",
		},
		[]string{"activity"},
	)

	ActivityDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "workflow_activity_duration_seconds",
			Help: "Duration of activity execution in seconds",
		},
		[]string{"activity"},
	)

	ActivityReplayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_activity_replayed_total",
			Help: "Activities resolved from recorded results without re-execution",
		},
		[]string{"activity"},
	)

	GeocodeCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_cache_hits_total",
			Help: "Postcode cache hits by outcome",
		},
		[]string{"outcome"},
	)
)
