package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Helm Server Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helm",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "helm",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Chat turn counter
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helm",
			Subsystem: "server",
			Name:      "chat_turns_total",
			Help:      "Total chat turns streamed",
		},
		[]string{"status"},
	)

	// Stream chunk counter
	StreamChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "helm",
			Subsystem: "server",
			Name:      "stream_chunks_total",
			Help:      "Total streamed message chunks delivered to clients",
		},
	)

	// Brain update counter
	BrainUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helm",
			Subsystem: "server",
			Name:      "brain_updates_total",
			Help:      "Total brain update attempts",
		},
		[]string{"brain_type", "status"},
	)

	// Queue depth gauge
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "helm",
			Subsystem: "server",
			Name:      "queue_depth",
			Help:      "Background job queue depth",
		},
	)

	// Background jobs counter
	BackgroundJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helm",
			Subsystem: "server",
			Name:      "background_jobs_total",
			Help:      "Total background jobs processed",
		},
		[]string{"job_type", "status"},
	)

	// DB query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "helm",
			Subsystem: "server",
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"query_type"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordChatTurn records a completed or failed chat turn
func RecordChatTurn(status string) {
	ChatTurnsTotal.WithLabelValues(status).Inc()
}

// RecordStreamChunk records one delivered message chunk
func RecordStreamChunk() {
	StreamChunksTotal.Inc()
}

// RecordBrainUpdate records a brain update attempt
func RecordBrainUpdate(brainType, status string) {
	BrainUpdatesTotal.WithLabelValues(brainType, status).Inc()
}

// SetQueueDepth sets the current queue depth
func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// RecordBackgroundJob records a background job execution
func RecordBackgroundJob(jobType, status string) {
	BackgroundJobsTotal.WithLabelValues(jobType, status).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(queryType string, durationSec float64) {
	DBQueryDuration.WithLabelValues(queryType).Observe(durationSec)
}
