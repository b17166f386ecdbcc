package runtime

import (
	"context"
	"time"

	"github.com/aretw0/twolc/pkg/domain"
)

func (c *compilation) emitStageStart(ctx context.Context, s domain.Stage, at time.Time) {
	if c.hooks.OnStageStart != nil {
		c.hooks.OnStageStart(ctx, &domain.StageEvent{Timestamp: at, Grammar: c.req.Name, Stage: s})
	}
}

func (c *compilation) emitStageEnd(ctx context.Context, s domain.Stage, start time.Time, err error) {
	if c.hooks.OnStageEnd != nil {
		now := time.Now()
		c.hooks.OnStageEnd(ctx, &domain.StageEvent{
			Timestamp: now,
			Grammar:   c.req.Name,
			Stage:     s,
			Duration:  now.Sub(start),
			Err:       err,
		})
	}
}

func (c *compilation) emitRuleCompiled(ctx context.Context, rule string, states int) {
	if c.hooks.OnRuleCompiled != nil {
		c.hooks.OnRuleCompiled(ctx, &domain.RuleEvent{Timestamp: time.Now(), Grammar: c.req.Name, Rule: rule, States: states})
	}
}

func (c *compilation) emitConflict(ctx context.Context, cf domain.Conflict) {
	if c.hooks.OnConflict != nil {
		c.hooks.OnConflict(ctx, &domain.ConflictEvent{Timestamp: time.Now(), Grammar: c.req.Name, Conflict: cf})
	}
}
