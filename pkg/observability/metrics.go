package observability

import (
	"context"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by Hooks.
type Metrics struct {
	NodeTransitions *prometheus.CounterVec
	Invocations     *prometheus.CounterVec
	InvokeDuration  *prometheus.HistogramVec
	Runs            *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lao_node_transitions_total",
				Help: "Node status transitions by status",
			},
			[]string{"status"},
		),
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lao_plugin_invocations_total",
				Help: "Plugin calls by plugin and result",
			},
			[]string{"plugin", "result"},
		),
		InvokeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lao_plugin_duration_seconds",
				Help:    "Duration of plugin calls",
				Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
			},
			[]string{"plugin"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lao_runs_total",
				Help: "Completed workflow runs by result",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeTransitions, m.Invocations, m.InvokeDuration, m.Runs)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStatus: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeTransitions.WithLabelValues(string(e.Status)).Inc()
		},
		OnInvoke: func(_ context.Context, e *domain.InvokeEvent) {
			result := "ok"
			switch {
			case e.Cached:
				result = "cached"
			case e.Err != nil:
				result = "error"
			}
			m.Invocations.WithLabelValues(e.Plugin, result).Inc()
			if !e.Cached {
				m.InvokeDuration.WithLabelValues(e.Plugin).Observe(e.Duration.Seconds())
			}
		},
		OnWorkflowDone: func(_ context.Context, e *domain.WorkflowEvent) {
			result := "success"
			if !e.Success {
				result = "failure"
			}
			m.Runs.WithLabelValues(result).Inc()
		},
	}
}
