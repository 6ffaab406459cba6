package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rainfall_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rainfall_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Upstream provider
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rainfall_upstream_request_duration_seconds",
			Help:    "Duration of calls to the rainfall provider in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind", "outcome"},
	)

	UpstreamResponseBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rainfall_upstream_response_bytes",
			Help:    "Size of rainfall provider response bodies",
			Buckets: prometheus.ExponentialBuckets(512, 4, 8),
		},
		[]string{"kind"},
	)

	UpstreamBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rainfall_upstream_breaker_state",
			Help: "Circuit breaker state for the rainfall provider (0=closed, 1=half-open, 2=open)",
		},
	)

	// Pipeline
	ParseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rainfall_parse_errors_total",
			Help: "Upstream responses that could not be parsed",
		},
		[]string{"format"},
	)

	DateFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rainfall_date_fallbacks_total",
			Help: "Requests whose dates parameter was replaced by the last 24 hours",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpstream records one call to the provider. outcome is "ok",
// "timeout", "unavailable" or "rejected".
func RecordUpstream(kind, outcome string, duration time.Duration, bytes int) {
	UpstreamRequestDuration.WithLabelValues(kind, outcome).Observe(duration.Seconds())
	if bytes > 0 {
		UpstreamResponseBytes.WithLabelValues(kind).Observe(float64(bytes))
	}
}

// RecordParseError counts an unparseable upstream body.
func RecordParseError(format string) {
	ParseErrorsTotal.WithLabelValues(format).Inc()
}
