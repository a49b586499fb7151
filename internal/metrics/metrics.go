// Package metrics exposes Prometheus instruments for provider calls,
// debates and assessments. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "erosion"

// Metrics holds the instruments registered on a private registry
type Metrics struct {
	registry *prometheus.Registry

	providerCalls    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	debates          *prometheus.CounterVec
	degradedTurns    *prometheus.CounterVec
	assessments      *prometheus.CounterVec
	anomalies        *prometheus.CounterVec
	documentsScored  *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// New creates metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		providerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Total AI provider calls",
			},
			[]string{"provider", "purpose", "status"}, // status: ok, error, timeout, parse_error
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_call_duration_seconds",
				Help:      "Duration of AI provider calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
			},
			[]string{"provider", "purpose"},
		),
		debates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "debates_total",
				Help:      "Debate runs by terminal outcome",
			},
			[]string{"outcome", "verdict"},
		),
		degradedTurns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "debate_degraded_turns_total",
				Help:      "Debate turns replaced by a neutral placeholder",
			},
			[]string{"role"},
		),
		assessments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assessments_total",
				Help:      "Completed assessments by category and final status",
			},
			[]string{"category", "status"},
		),
		anomalies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trend_anomalies_total",
				Help:      "Trend anomalies detected",
			},
			[]string{"category", "severity"},
		),
		documentsScored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_scored_total",
				Help:      "Evidence items scored",
			},
			[]string{"category", "class"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Read-through cache lookups",
			},
			[]string{"result"}, // hit, miss, error
		),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveProviderCall records one provider call
func (m *Metrics) ObserveProviderCall(provider, purpose, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, purpose, status).Inc()
	m.providerDuration.WithLabelValues(provider, purpose).Observe(elapsed.Seconds())
}

// ObserveDebate records a debate's terminal outcome
func (m *Metrics) ObserveDebate(outcome, verdict string) {
	if m == nil {
		return
	}
	m.debates.WithLabelValues(outcome, verdict).Inc()
}

// ObserveDegradedTurn records a placeholder substitution
func (m *Metrics) ObserveDegradedTurn(role string) {
	if m == nil {
		return
	}
	m.degradedTurns.WithLabelValues(role).Inc()
}

// ObserveAssessment records a finished assessment
func (m *Metrics) ObserveAssessment(category, status string) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(category, status).Inc()
}

// ObserveAnomaly records a detected anomaly
func (m *Metrics) ObserveAnomaly(category, severity string) {
	if m == nil {
		return
	}
	m.anomalies.WithLabelValues(category, severity).Inc()
}

// ObserveDocument records a scored document
func (m *Metrics) ObserveDocument(category, class string) {
	if m == nil {
		return
	}
	m.documentsScored.WithLabelValues(category, class).Inc()
}

// ObserveCache records a cache lookup result
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// WriteTextfile writes all metrics in the Prometheus text format, for
// collection by node_exporter's textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
