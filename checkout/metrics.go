package checkout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records checkout activity. A nil *Metrics records nothing.
type Metrics struct {
	stepViews      *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
}

// NewMetrics registers the checkout collectors with registry
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	return &Metrics{
		stepViews: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_step_views_total",
				Help: "Total number of checkout step views by outcome",
			},
			[]string{"step", "outcome"},
		),
		submissions: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_step_submissions_total",
				Help: "Total number of checkout step submissions by outcome",
			},
			[]string{"step", "outcome"},
		),
		transitions: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_workflow_transitions_total",
				Help: "Total number of order workflow transitions attempted",
			},
			[]string{"transition", "result"},
		),
		submitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkout_step_submit_duration_seconds",
				Help:    "Duration of checkout step submissions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
	}
}

func (m *Metrics) observeView(step, outcome string) {
	if m == nil {
		return
	}
	m.stepViews.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) observeSubmission(step, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(step, outcome).Inc()
	m.submitDuration.WithLabelValues(step).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeTransition(transition, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, result).Inc()
}
