package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chapel_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ModerationActionsTotal counts privileged mutations by audit action.
	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chapel_moderation_actions_total",
		Help: "Total number of moderation actions by type",
	}, []string{"action"})

	// AuthAttemptsTotal counts sign-in and sign-up attempts by kind and outcome.
	AuthAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chapel_auth_attempts_total",
		Help: "Total authentication attempts by kind and outcome",
	}, []string{"kind", "outcome"})

	// WebSocketConnectionsTotal is the gauge of active moderation feed connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chapel_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chapel_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordModerationAction increments the moderation counter for action.
func RecordModerationAction(action string) {
	ModerationActionsTotal.WithLabelValues(action).Inc()
}

// RecordAuthAttempt increments the auth counter.
func RecordAuthAttempt(kind string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	AuthAttemptsTotal.WithLabelValues(kind, outcome).Inc()
}
