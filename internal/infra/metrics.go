package infra

import (
	"errors"
	"net/http"
	"time"

	"signal_relay/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the relay.
// All collectors are safe for concurrent use.
type Metrics struct {
	Invocations        *prometheus.CounterVec // labels: outcome
	EnrichmentFailures *prometheus.CounterVec // labels: reason
	InvocationDur      prometheus.Histogram
	EnrichmentDur      prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics registers the relay collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_invocations_total",
			Help: "Invocations by outcome (sent, fallback, failed)",
		}, []string{"outcome"}),
		EnrichmentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_enrichment_failures_total",
			Help: "Enrichment calls that ended in the fallback path",
		}, []string{"reason"}),
		InvocationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_invocation_duration_seconds",
			Help:    "End-to-end invocation latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		EnrichmentDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_enrichment_duration_seconds",
			Help:    "Secondary API call latency, including timeouts",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Invocations,
		m.EnrichmentFailures,
		m.InvocationDur,
		m.EnrichmentDur,
	)

	return m
}

// RecordInvocation records the outcome and latency of one invocation.
func (m *Metrics) RecordInvocation(outcome domain.Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.Invocations.WithLabelValues(string(outcome)).Inc()
	m.InvocationDur.Observe(d.Seconds())
}

// RecordEnrichment records a finished enrichment call. err == nil means success.
func (m *Metrics) RecordEnrichment(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.EnrichmentDur.Observe(d.Seconds())
	if err != nil {
		m.EnrichmentFailures.WithLabelValues(EnrichmentFailureReason(err)).Inc()
	}
}

// EnrichmentFailureReason buckets an enrichment error for the reason label.
func EnrichmentFailureReason(err error) string {
	var te *domain.TimeoutError
	var ee *domain.EnrichmentError
	switch {
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &ee):
		return ee.Op
	default:
		return "other"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
