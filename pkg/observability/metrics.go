package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// Metrics holds the engine collectors.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Delegations   *prometheus.HistogramVec
	Fallbacks     *prometheus.CounterVec
	WorkflowNodes prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_transitions_total",
				Help: "Accepted replies by source and target state.",
			},
			[]string{"from", "to"},
		),
		Delegations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "onboarding_delegation_duration_seconds",
				Help:    "Generation service latency by state and outcome.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"state", "outcome"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_fallbacks_total",
				Help: "Replies rolled back to the fallback message, by state.",
			},
			[]string{"state"},
		),
		WorkflowNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "onboarding_workflow_nodes",
			Help:    "Node count of each rebuilt workflow preview.",
			Buckets: prometheus.LinearBuckets(2, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.Delegations, m.Fallbacks, m.WorkflowNodes)
	}
	return m
}

// Hooks returns lifecycle hooks that feed m and log each event at debug level. Either
// argument may be nil.
func Hooks(m *Metrics, logger *slog.Logger) domain.LifecycleHooks {
	log := func(ctx context.Context, msg string, args ...any) {
		if logger != nil {
			logger.DebugContext(ctx, msg, args...)
		}
	}
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			if m != nil {
				m.Transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
			}
			log(ctx, "Transition", "session_id", e.SessionID, "from", e.From, "to", e.To)
		},
		OnDelegate: func(ctx context.Context, e *domain.DelegateEvent) {
			log(ctx, "Delegating reply", "session_id", e.SessionID, "state", e.State)
		},
		OnDelegateReturn: func(ctx context.Context, e *domain.DelegateEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			if m != nil {
				m.Delegations.WithLabelValues(string(e.State), outcome).Observe(e.Duration.Seconds())
			}
			log(ctx, "Delegation returned", "session_id", e.SessionID, "outcome", outcome, "duration", e.Duration)
		},
		OnWorkflowBuilt: func(ctx context.Context, e *domain.WorkflowEvent) {
			if m != nil {
				m.WorkflowNodes.Observe(float64(e.Nodes))
			}
			log(ctx, "Workflow rebuilt", "session_id", e.SessionID, "nodes", e.Nodes, "edges", e.Edges)
		},
		OnFallback: func(ctx context.Context, e *domain.FallbackEvent) {
			if m != nil {
				m.Fallbacks.WithLabelValues(string(e.State)).Inc()
			}
			if logger != nil {
				logger.WarnContext(ctx, "Reply fell back", "session_id", e.SessionID, "state", e.State, "err", e.Err)
			}
		},
	}
}
