// Package telemetry exposes Prometheus metrics for plan execution.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step outcomes recorded per execution attempt.
const (
	OutcomeOK      = "ok"
	OutcomeRetried = "retried"
	OutcomeFailed  = "failed"
)

// Metrics holds the plan execution counters and histograms. A nil *Metrics
// is valid and records nothing, so callers never need to guard.
type Metrics struct {
	plansTotal   prometheus.Counter
	planDuration prometheus.Histogram
	stepsTotal   *prometheus.CounterVec
	stepRetries  prometheus.Counter
	stepDuration *prometheus.HistogramVec
}

// New registers the metrics on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		plansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "taskpilot",
			Name:      "plans_total",
			Help:      "Number of executed plans.",
		}),
		planDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taskpilot",
			Name:      "plan_duration_seconds",
			Help:      "Wall time of whole plan executions.",
			Buckets:   prometheus.DefBuckets,
		}),
		stepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskpilot",
			Name:      "steps_total",
			Help:      "Number of executed steps by tool and outcome.",
		}, []string{"tool", "outcome"}),
		stepRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "taskpilot",
			Name:      "step_retries_total",
			Help:      "Number of step retry attempts.",
		}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskpilot",
			Name:      "step_duration_seconds",
			Help:      "Wall time of single step executions by tool.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

// ObservePlan records one finished plan execution.
func (m *Metrics) ObservePlan(d time.Duration) {
	if m == nil {
		return
	}
	m.plansTotal.Inc()
	m.planDuration.Observe(d.Seconds())
}

// ObserveStep records one finished step with its terminal outcome.
func (m *Metrics) ObserveStep(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(tool, outcome).Inc()
	m.stepDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// IncRetry records one retry attempt.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.stepRetries.Inc()
}
