// Package metrics holds the Prometheus collectors exported on /metrics.
// Every recording method is safe to call on a nil *Metrics so components
// can run without instrumentation in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxscribe"

// Metrics contains all collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	VoiceEvents           *prometheus.CounterVec
	TranscriptionDuration prometheus.Histogram
	TokenRefreshes        *prometheus.CounterVec
	HTTPRetries           *prometheus.CounterVec
	InFlight              prometheus.Gauge
}

// New creates the collectors on a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		VoiceEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_events_total",
			Help:      "Voice events handled, by final outcome.",
		}, []string{"outcome"}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_duration_seconds",
			Help:      "Time from event receipt to transcription result.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		}),
		TokenRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "OAuth token refresh attempts, by result.",
		}, []string{"result"}),
		HTTPRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_retries_total",
			Help:      "Outbound HTTP retries after transport failures, by target.",
		}, []string{"target"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_events_in_flight",
			Help:      "Voice events currently being processed.",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordVoiceEvent counts a handled event.
func (m *Metrics) RecordVoiceEvent(outcome string) {
	if m == nil {
		return
	}
	m.VoiceEvents.WithLabelValues(outcome).Inc()
}

// ObserveTranscription records how long a transcription took.
func (m *Metrics) ObserveTranscription(d time.Duration) {
	if m == nil {
		return
	}
	m.TranscriptionDuration.Observe(d.Seconds())
}

// RecordTokenRefresh counts a refresh with result "ok" or "error".
func (m *Metrics) RecordTokenRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

// RecordRetry counts one retry toward target.
func (m *Metrics) RecordRetry(target string) {
	if m == nil {
		return
	}
	m.HTTPRetries.WithLabelValues(target).Inc()
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return m.InFlight.Dec
}
