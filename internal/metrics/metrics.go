// Package metrics exposes Prometheus instrumentation for the conversation
// pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrimitra_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrimitra_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	handlerInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrimitra_handler_invocations_total",
			Help: "Total number of capability handler invocations",
		},
		[]string{"handler", "status"},
	)

	handlerInvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrimitra_handler_invocation_duration_seconds",
			Help:    "Capability handler invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	normalizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrimitra_normalizations_total",
			Help: "Total number of inbound message normalizations",
		},
		[]string{"modality", "status"},
	)

	voiceFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agrimitra_voice_fallbacks_total",
			Help: "Voice replies degraded to text after synthesis or upload failure",
		},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agrimitra_sessions_active",
			Help: "Number of live sessions",
		},
	)

	initOnce sync.Once
)

// Init registers the metrics. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			handlerInvocationsTotal,
			handlerInvocationDuration,
			normalizationsTotal,
			voiceFallbacksTotal,
			sessionsActive,
		)
	})
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordHandlerInvocation records one capability handler call.
func RecordHandlerInvocation(handler, status string, duration time.Duration) {
	handlerInvocationsTotal.WithLabelValues(handler, status).Inc()
	handlerInvocationDuration.WithLabelValues(handler).Observe(duration.Seconds())
}

// RecordNormalization records one inbound normalization outcome.
func RecordNormalization(modality, status string) {
	normalizationsTotal.WithLabelValues(modality, status).Inc()
}

// RecordVoiceFallback counts a voice reply degraded to text.
func RecordVoiceFallback() {
	voiceFallbacksTotal.Inc()
}

// SetActiveSessions updates the live session gauge.
func SetActiveSessions(n int) {
	sessionsActive.Set(float64(n))
}
