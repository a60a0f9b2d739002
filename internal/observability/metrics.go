// Package observability provides Prometheus collectors and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrolla_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RepositoryLatency records repository call latency by repository and method.
	RepositoryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scrolla_repository_latency_seconds",
		Help:    "Repository call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"repository", "method"})

	// Interactions counts toggles by kind (like, save, hide, report, follow) and resulting state.
	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrolla_interactions_total",
		Help: "Total number of post and user interactions by kind and resulting state",
	}, []string{"kind", "state"})

	// FeedCacheResults counts feed cache lookups by result (hit, miss, error, bypass).
	FeedCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrolla_feed_cache_results_total",
		Help: "Feed page cache lookups by result",
	}, []string{"result"})

	// MediaUploads counts processed uploads by outcome.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrolla_media_uploads_total",
		Help: "Image uploads by outcome",
	}, []string{"outcome"})

	// EventsPublished counts realtime events by transport and type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrolla_events_published_total",
		Help: "Realtime events published by transport and event type",
	}, []string{"transport", "event_type"})

	// ActiveWebSockets is the number of open live-feed connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scrolla_websocket_connections",
		Help: "Number of active live-feed WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrolla_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackRepository returns a function that records the call latency when
// invoked, typically via defer.
func TrackRepository(repository, method string) func() {
	start := time.Now()
	return func() {
		RepositoryLatency.WithLabelValues(repository, method).Observe(time.Since(start).Seconds())
	}
}

// ToggleState renders a toggle result as a metric label.
func ToggleState(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
