package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/twolc/internal/alphabet"
	"github.com/aretw0/twolc/internal/grammar"
	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/internal/preprocess"
	"github.com/aretw0/twolc/pkg/domain"
)

var transitions = map[domain.State][]domain.State{
	domain.StateReset:              {domain.StatePreprocessing},
	domain.StatePreprocessing:      {domain.StateAlphabetResolution},
	domain.StateAlphabetResolution: {domain.StateRuleCompilation},
	domain.StateRuleCompilation:    {domain.StateComposed, domain.StateStorableSet},
}

// compilation is the state of one compile. It is never shared.
type compilation struct {
	*Engine
	req     Request
	log     *slog.Logger
	state   domain.State
	report  domain.Report
	origins map[string]domain.Position
}

func (e *Engine) newCompilation(req Request) *compilation {
	log := e.logger
	if req.Diagnostics != nil {
		log = logging.NewDiagnostics(req.Diagnostics, req.Config.Silent, req.Config.Verbose)
	}
	return &compilation{
		Engine: e,
		req:    req,
		log:    log.With("grammar", req.Name),
		state:  domain.StateReset,
		report: domain.Report{Grammar: req.Name, State: domain.StateReset},
	}
}

// advance moves the state machine. Failed is reachable from any
// non-terminal state.
func (c *compilation) advance(to domain.State) {
	if to != domain.StateFailed && !slices.Contains(transitions[c.state], to) {
		panic(fmt.Sprintf("runtime: illegal transition %s -> %s", c.state, to))
	}
	c.log.Debug("state transition", "from", string(c.state), "to", string(to))
	c.state = to
	c.report.State = to
}

func (c *compilation) fail(err error) {
	if c.state.Terminal() {
		return
	}
	c.advance(domain.StateFailed)
	level := slog.LevelError
	if domain.IsGrammarError(err) {
		level = slog.LevelWarn
	}
	c.log.Log(context.Background(), level, "compile failed", "err", err)
}

// stage runs fn as one pipeline stage with its own logger.
func (c *compilation) stage(ctx context.Context, s domain.Stage, fn func(*slog.Logger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	c.emitStageStart(ctx, s, start)
	err := fn(logging.ForStage(c.log, s))
	err = c.locate(err)
	c.emitStageEnd(ctx, s, start, err)
	return err
}

// locate points a rule error at the rule's source position. Later stages
// only see the normalized stream.
func (c *compilation) locate(err error) error {
	var ge *domain.GrammarError
	if err == nil || !errors.As(err, &ge) || ge.Stage == domain.StagePreprocess {
		return err
	}
	if pos, ok := c.origins[ge.Rule]; ok && ge.Rule != "" {
		ge.Pos = pos
	} else {
		ge.Pos = domain.Position{Source: c.req.Name}
	}
	return err
}

func (c *compilation) resolve(ctx context.Context) (*Resolved, error) {
	var out *preprocess.Output
	c.advance(domain.StatePreprocessing)
	err := c.stage(ctx, domain.StagePreprocess, func(log *slog.Logger) error {
		var err error
		out, err = preprocess.New(log).Run(c.req.Name, c.req.Source)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.origins = out.Origins

	res := &Resolved{Rules: out.Rules}
	c.advance(domain.StateAlphabetResolution)
	err = c.stage(ctx, domain.StageAlphabet, func(log *slog.Logger) error {
		r := alphabet.New(log)
		if err := r.Resolve(c.req.Name, out.Stream); err != nil {
			return err
		}
		r.Complete()
		res.Alphabet = r.Alphabet()
		res.Input = r.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.report.Alphabet = res.Alphabet
	return res, nil
}

func (c *compilation) run(ctx context.Context) (*Result, error) {
	resolved, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Report: &c.report}
	c.advance(domain.StateRuleCompilation)
	err = c.stage(ctx, domain.StageCompile, func(log *slog.Logger) error {
		g, err := grammar.Parse(c.req.Name, resolved.Input, c.req.Config, log)
		if err != nil {
			return err
		}
		c.report.Rules = g.Rules()
		compiled, err := g.Compile()
		if err != nil {
			var ce *domain.ConflictError
			if errors.As(err, &ce) {
				c.report.Conflicts = []domain.Conflict{ce.Conflict}
				c.emitConflict(ctx, ce.Conflict)
			}
			return err
		}
		c.report.Conflicts = compiled.Conflicts
		for _, cf := range compiled.Conflicts {
			c.emitConflict(ctx, cf)
		}
		for _, r := range compiled.Rules {
			c.emitRuleCompiled(ctx, r.Rule.Name, r.Transducer.Automaton().NumStates())
		}

		if c.req.Mode == domain.ModeStorable {
			res.Rules = compiled.Storable()
			return nil
		}
		t, err := compiled.ComposeSafe(c.req.Name)
		if err != nil {
			return err
		}
		if c.req.Store != nil {
			if err := c.req.Store.Save(ctx, t); err != nil {
				return fmt.Errorf("failed to store transducer %q: %w", c.req.Name, err)
			}
		}
		res.Transducer = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.req.Mode == domain.ModeStorable {
		c.advance(domain.StateStorableSet)
	} else {
		c.advance(domain.StateComposed)
	}
	return res, nil
}
