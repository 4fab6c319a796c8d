// Package metrics defines the Prometheus instruments of the assistant.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ekaya_assist"

// Metrics holds all Prometheus metrics for the assistant.
type Metrics struct {
	AnswersTotal           *prometheus.CounterVec   // source: remote, local, none; outcome: ok, error, unclassified
	ReasoningCallsTotal    *prometheus.CounterVec   // provider, outcome
	ReasoningDuration      *prometheus.HistogramVec // provider
	SecurityViolationTotal *prometheus.CounterVec   // source
	TenantScopeWarnings    prometheus.Counter
	RateLimitedTotal       prometheus.Counter
}

// New registers the metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		AnswersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "answers_total",
			Help:      "Answered questions by answer source and outcome.",
		}, []string{"source", "outcome"}),
		ReasoningCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reasoning",
			Name:      "calls_total",
			Help:      "Reasoning service calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ReasoningDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reasoning",
			Name:      "call_duration_seconds",
			Help:      "Latency of reasoning service calls that reached the provider.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider"}),
		SecurityViolationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator",
			Name:      "security_violations_total",
			Help:      "Statements rejected before execution, by plan source.",
		}, []string{"source"}),
		TenantScopeWarnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator",
			Name:      "tenant_scope_warnings_total",
			Help:      "Statements executed without the tenant id spelled out literally.",
		}),
		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-tenant rate limiter.",
		}),
	}
}

// ObserveReasoningCall matches llm.CallObserver.
func (m *Metrics) ObserveReasoningCall(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "none"
	}
	m.ReasoningCallsTotal.WithLabelValues(provider, outcome).Inc()
	if elapsed > 0 {
		m.ReasoningDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// ObserveAnswer counts one orchestrated question.
func (m *Metrics) ObserveAnswer(source, outcome string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.AnswersTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveSecurityViolation counts a rejected statement.
func (m *Metrics) ObserveSecurityViolation(source string) {
	if m == nil {
		return
	}
	m.SecurityViolationTotal.WithLabelValues(source).Inc()
}

// ObserveTenantScopeWarning matches the sql validator warning hook.
func (m *Metrics) ObserveTenantScopeWarning() {
	if m == nil {
		return
	}
	m.TenantScopeWarnings.Inc()
}

// ObserveRateLimited counts a throttled request.
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}
