package grammar

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/ports"
)

// CompiledRule is one rule with its automaton.
type CompiledRule struct {
	Rule       domain.Rule
	Transducer *fst.Transducer
}

// Compiled is the shared result of both output modes.
type Compiled struct {
	Grammar   string
	Alphabet  domain.Alphabet
	Labels    []domain.Pair
	Rules     []CompiledRule
	Conflicts []domain.Conflict
}

// Compose intersects every rule automaton into one transducer. An empty
// grammar composes to the identity relation over the labels.
func (c *Compiled) Compose(name string) *fst.Transducer {
	if len(c.Rules) == 0 {
		return fst.Identity(name, c.Labels)
	}
	ts := make([]*fst.Transducer, len(c.Rules))
	for i, r := range c.Rules {
		ts[i] = r.Transducer
	}
	return fst.Intersect(name, ts...)
}

// Storable returns the rule transducers in source order, each named by its rule.
func (c *Compiled) Storable() []*fst.Transducer {
	out := make([]*fst.Transducer, 0, len(c.Rules))
	for _, r := range c.Rules {
		out = append(out, r.Transducer)
	}
	return out
}

// recoverInternal turns automaton invariant panics into InternalError.
// Any other panic is re-raised.
func recoverInternal(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		var ie *fst.InvariantError
		if errors.As(e, &ie) {
			*err = &domain.InternalError{Stage: domain.StageCompile, Cause: e}
			return
		}
	}
	panic(r)
}

// Compile builds every rule automaton and resolves conflicts. It is the
// pipeline shared by CompileAndStore and CompileAndGetStorableRules.
func (g *Grammar) Compile() (compiled *Compiled, err error) {
	defer recoverInternal(&err)

	b := newBuilder(len(g.labels))
	models := make([]*model, len(g.rules))
	for i, r := range g.rules {
		models[i] = &model{rule: r, ctx: b.contexts(r.contexts)}
	}

	conflicts := g.detect(models)
	for _, c := range conflicts {
		g.logger.Warn("rule conflict", "side", string(c.Side), "rule_a", c.RuleA, "rule_b", c.RuleB, "pairs", len(c.Pairs))
	}
	if err := g.resolve(models, conflicts); err != nil {
		return nil, err
	}
	for _, c := range conflicts {
		g.logger.Info("conflict resolved", "rule_a", c.RuleA, "rule_b", c.RuleB, "resolution", c.Resolution)
	}

	// Restricting contexts of a pair are merged across all rules that restrict it.
	merged := make(map[int]*fst.Automaton)
	for _, m := range models {
		if !m.Op.Restricts() {
			continue
		}
		for _, l := range m.centers {
			if u, ok := merged[l]; ok {
				merged[l] = u.Union(m.ctx)
			} else {
				merged[l] = m.ctx
			}
		}
	}

	compiled = &Compiled{
		Grammar:   g.name,
		Alphabet:  g.alphabet,
		Labels:    g.Labels(),
		Conflicts: conflicts,
	}
	for _, m := range models {
		a := g.ruleAutomaton(b, m, merged)
		t := fst.NewTransducer(m.Name, g.labels, a)
		g.logger.Debug("rule compiled", "rule", m.Name, "op", string(m.Op), "states", a.NumStates())
		compiled.Rules = append(compiled.Rules, CompiledRule{Rule: m.Rule, Transducer: t})
	}
	g.logger.Info("grammar compiled", "grammar", g.name, "rules", len(compiled.Rules), "conflicts", len(conflicts))
	return compiled, nil
}

func (g *Grammar) ruleAutomaton(b *builder, m *model, merged map[int]*fst.Automaton) *fst.Automaton {
	a := fst.Universal(b.n())
	if m.Op.Restricts() {
		for _, l := range m.centers {
			a = a.Intersect(b.restrict([]int{l}, merged[l]))
		}
	}
	if m.leftArrow() {
		left := m.ctx
		for _, x := range m.narrow {
			left = left.Minus(x)
		}
		if m.Op.Coerces() {
			a = a.Intersect(b.forbid(g.alternatives(m), left))
		} else {
			a = a.Intersect(b.forbid(m.centers, left))
		}
	}
	return b.finish(a)
}

// alternatives returns the labels that realize a center's lexical symbols
// otherwise than the center does.
func (g *Grammar) alternatives(m *model) []int {
	lex := make(map[domain.Symbol]bool)
	for _, l := range m.centers {
		lex[g.labels[l].Lex] = true
	}
	var out []int
	for i, p := range g.labels {
		if lex[p.Lex] && !contains(m.centers, i) {
			out = append(out, i)
		}
	}
	return out
}

// CompileAndStore compiles, composes and saves one transducer named name.
func (g *Grammar) CompileAndStore(ctx context.Context, store ports.TransducerStore, name string) error {
	c, err := g.Compile()
	if err != nil {
		return err
	}
	t, err := c.ComposeSafe(name)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, t); err != nil {
		return fmt.Errorf("failed to store transducer %q: %w", name, err)
	}
	return nil
}

// CompileAndGetStorableRules compiles and returns one transducer per rule.
func (g *Grammar) CompileAndGetStorableRules() ([]*fst.Transducer, error) {
	c, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return c.Storable(), nil
}

// ComposeSafe is Compose with automaton faults returned as InternalError.
func (c *Compiled) ComposeSafe(name string) (t *fst.Transducer, err error) {
	defer recoverInternal(&err)
	return c.Compose(name), nil
}
