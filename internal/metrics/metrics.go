// Package metrics provides Prometheus metrics and the bounded API-call
// recorder for LogGuard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "logguard"
)

// Upstream API metrics (log store, language model, notification channels)
var (
	// APICallsTotal counts outbound API calls by endpoint, method, and status.
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "calls_total",
			Help:      "Total outbound API calls",
		},
		[]string{"endpoint", "method", "status"},
	)

	// APICallDuration tracks outbound call latency.
	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "call_duration_seconds",
			Help:      "Outbound API call latency in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "method"},
	)
)

// Streaming metrics
var (
	// PollIterationsTotal counts poll iterations by outcome.
	PollIterationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "poll_iterations_total",
			Help:      "Total poll iterations",
		},
		[]string{"outcome"}, // success, error
	)

	// EntriesDeliveredTotal counts log entries delivered to the pipeline.
	EntriesDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "entries_delivered_total",
			Help:      "Total log entries delivered to the processing callback",
		},
	)

	// PollerRunning tracks whether a streaming poller is active.
	PollerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "poller_running",
			Help:      "1 when the streaming poller is running",
		},
	)
)

// Analysis metrics
var (
	// ClassificationsTotal counts anomaly classifications by result.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "classifications_total",
			Help:      "Total anomaly classifications",
		},
		[]string{"result"}, // model, fallback, unavailable
	)

	// AlertsCreatedTotal counts escalated alerts by severity.
	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "alerts_created_total",
			Help:      "Total alerts created",
		},
		[]string{"severity"},
	)
)

// Notification metrics
var (
	// NotificationsSentTotal counts channel sends by channel and outcome.
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Total notification sends",
		},
		[]string{"channel", "outcome"}, // outcome: success, failure
	)

	// NotificationsDroppedTotal counts dispatches dropped by rate limiting.
	NotificationsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "dropped_total",
			Help:      "Total alert dispatches dropped due to rate limiting",
		},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

// Info metric
var (
	// BuildInfo exposes build information.
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)
)

// SetBuildInfo sets the build info metric.
func SetBuildInfo(version, commit, buildTime string) {
	BuildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}
