// Package metrics provides Prometheus metrics for upstream employee calls.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the collectors for outbound calls to the employee upstream.
type Metrics struct {
	// Upstream attempt metrics
	UpstreamAttemptsTotal *prometheus.CounterVec // Every HTTP attempt by method and status
	UpstreamRetriesTotal  *prometheus.CounterVec // Retries triggered by 429 responses
	UpstreamFailuresTotal *prometheus.CounterVec // Calls that ended in a transport failure, by kind

	// Latency metrics
	UpstreamCallDurationSeconds *prometheus.HistogramVec // Whole call including retries

	// Health
	UpstreamHealthy prometheus.Gauge // 1 while the upstream is considered healthy
}

// New registers the collectors with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpstreamAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_upstream_attempts_total",
			Help: "Total number of HTTP attempts made to the employee upstream",
		}, []string{"method", "status"}),

		UpstreamRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_upstream_retries_total",
			Help: "Total number of retries after a rate-limited upstream response",
		}, []string{"method"}),

		UpstreamFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_upstream_failures_total",
			Help: "Total number of upstream calls that ended in a transport failure",
		}, []string{"method", "kind"}),

		UpstreamCallDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_upstream_call_duration_seconds",
			Help:    "Duration of upstream calls including retry waits",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),

		UpstreamHealthy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roster_upstream_healthy",
			Help: "Whether the employee upstream is currently considered healthy (1) or not (0)",
		}),
	}
}

// RecordAttempt records a single HTTP attempt. status is 0 when no response arrived.
func (m *Metrics) RecordAttempt(method string, status int) {
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamAttemptsTotal.WithLabelValues(method, label).Inc()
}

func (m *Metrics) RecordRetry(method string) {
	m.UpstreamRetriesTotal.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordFailure(method, kind string) {
	m.UpstreamFailuresTotal.WithLabelValues(method, kind).Inc()
}

// ObserveCallDuration records the duration of a whole upstream call.
func (m *Metrics) ObserveCallDuration(method string, durationSeconds float64) {
	m.UpstreamCallDurationSeconds.WithLabelValues(method).Observe(durationSeconds)
}

func (m *Metrics) SetUpstreamHealthy(healthy bool) {
	if healthy {
		m.UpstreamHealthy.Set(1)
		return
	}
	m.UpstreamHealthy.Set(0)
}
