package domain

import (
	"context"
	"time"
)

// StageEvent is emitted when a pipeline stage starts or ends.
type StageEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Grammar   string        `json:"grammar"`
	Stage     Stage         `json:"stage"`
	Duration  time.Duration `json:"duration,omitempty"` // set on end
	Err       error         `json:"-"`
}

// RuleEvent is emitted when one rule automaton has been built.
type RuleEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Grammar   string    `json:"grammar"`
	Rule      string    `json:"rule"`
	States    int       `json:"states"`
}

// ConflictEvent is emitted for every conflict detected, resolved or not.
type ConflictEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Grammar   string    `json:"grammar"`
	Conflict  Conflict  `json:"conflict"`
}

// LifecycleHooks defines callbacks for compiler observability.
type LifecycleHooks struct {
	OnStageStart   func(context.Context, *StageEvent)
	OnStageEnd     func(context.Context, *StageEvent)
	OnRuleCompiled func(context.Context, *RuleEvent)
	OnConflict     func(context.Context, *ConflictEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageStart:   chain(h.OnStageStart, other.OnStageStart),
		OnStageEnd:     chain(h.OnStageEnd, other.OnStageEnd),
		OnRuleCompiled: chain(h.OnRuleCompiled, other.OnRuleCompiled),
		OnConflict:     chain(h.OnConflict, other.OnConflict),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
