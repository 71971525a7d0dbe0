// Package observability collects engine metrics on a dedicated Prometheus
// registry so embedding applications never collide with it.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder, so wiring can disable metrics without branching.
type Metrics struct {
	registry *prometheus.Registry

	turns             *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	intentResolutions *prometheus.CounterVec
	llmCalls          *prometheus.CounterVec
	llmLatency        *prometheus.HistogramVec
	planCacheEvents   *prometheus.CounterVec
	synthesis         *prometheus.CounterVec
	steps             *prometheus.CounterVec
	externalCalls     *prometheus.CounterVec
	patternEvents     *prometheus.CounterVec
}

// New creates the engine collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.turns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascendia_turns_total",
			Help: "Total conversation turns handled",
		},
		[]string{"domain", "status"},
	)
	m.turnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ascendia_turn_duration_seconds",
			Help:    "Wall time spent handling a turn",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"domain"},
	)
	m.intentResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascendia_intent_resolutions_total",
			Help: "Intent resolutions by producing layer",
		},
		[]string{"domain", "layer"},
	)
	m.llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascendia_llm_calls_total",
			Help: "Model calls by provider and purpose",
		},
		[]string{"provider", "purpose"},
	)
	m.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ascendia_llm_latency_seconds",
			Help:    "Model call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)
	m.planCacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascendia_plan_cache_events_total",
			Help: "Plan cache hits, misses and stores",
		},
		[]string{"event"},
	)
	m.synthesis = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascendia_synthesis_total",
			Help: "Plan synthesis attempts by outcome",
		},
		[]string{"domain", "outcome"},
	)
	m.steps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascendia_steps_total",
			Help: "Plan steps executed by result",
		},
		[]string{"domain", "result"},
	)
	m.externalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascendia_external_calls_total",
			Help: "Domain API dispatches by outcome",
		},
		[]string{"domain", "outcome"},
	)
	m.patternEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascendia_pattern_events_total",
			Help: "Pattern learner events",
		},
		[]string{"event"},
	)

	m.registry.MustRegister(
		m.turns, m.turnDuration, m.intentResolutions,
		m.llmCalls, m.llmLatency,
		m.planCacheEvents, m.synthesis,
		m.steps, m.externalCalls, m.patternEvents,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordTurn(domain, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(domain, status).Inc()
	m.turnDuration.WithLabelValues(domain).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordResolution(domain, layer string) {
	if m == nil {
		return
	}
	m.intentResolutions.WithLabelValues(domain, layer).Inc()
}

func (m *Metrics) RecordLLMCall(provider, purpose string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(provider, purpose).Inc()
	m.llmLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordPlanCache(event string) {
	if m == nil {
		return
	}
	m.planCacheEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordSynthesis(domain, outcome string) {
	if m == nil {
		return
	}
	m.synthesis.WithLabelValues(domain, outcome).Inc()
}

func (m *Metrics) RecordStep(domain, result string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(domain, result).Inc()
}

func (m *Metrics) RecordExternalCall(domain, outcome string) {
	if m == nil {
		return
	}
	m.externalCalls.WithLabelValues(domain, outcome).Inc()
}

func (m *Metrics) RecordPatternEvent(event string) {
	if m == nil {
		return
	}
	m.patternEvents.WithLabelValues(event).Inc()
}
