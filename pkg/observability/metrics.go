package observability

import (
	"context"
	"errors"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the compiler's Prometheus collectors.
type Metrics struct {
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec
	Compiles      *prometheus.CounterVec
	RuleStates    prometheus.Histogram
	Conflicts     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twolc_stage_duration_seconds",
				Help:    "Duration of compilation stages",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"stage"},
		),
		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twolc_stage_failures_total",
				Help: "Stages that ended with an error, by error kind",
			},
			[]string{"stage", "kind"},
		),
		Compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twolc_compiles_total",
				Help: "Finished compiles by outcome",
			},
			[]string{"outcome"},
		),
		RuleStates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "twolc_rule_states",
				Help:    "States of compiled rule automata",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		Conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twolc_conflicts_total",
				Help: "Rule conflicts by side and whether they were resolved",
			},
			[]string{"side", "resolved"},
		),
	}
	reg.MustRegister(m.StageDuration, m.StageFailures, m.Compiles, m.RuleStates, m.Conflicts)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnd: func(_ context.Context, e *domain.StageEvent) {
			m.StageDuration.WithLabelValues(string(e.Stage)).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.StageFailures.WithLabelValues(string(e.Stage), ErrorKind(e.Err)).Inc()
				m.Compiles.WithLabelValues("failed").Inc()
				return
			}
			if e.Stage == domain.StageCompile {
				m.Compiles.WithLabelValues("ok").Inc()
			}
		},
		OnRuleCompiled: func(_ context.Context, e *domain.RuleEvent) {
			m.RuleStates.Observe(float64(e.States))
		},
		OnConflict: func(_ context.Context, e *domain.ConflictEvent) {
			resolved := "false"
			if e.Conflict.Resolved {
				resolved = "true"
			}
			m.Conflicts.WithLabelValues(string(e.Conflict.Side), resolved).Inc()
		},
	}
}

// ErrorKind classifies a compile error for metric labels.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownSymbol):
		return "unknown_symbol"
	case errors.Is(err, domain.ErrSyntax):
		return "syntax"
	case errors.Is(err, domain.ErrUnresolvedConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInternal):
		return "internal"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "other"
}
