package grammar

import (
	"fmt"
	"sort"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

// model is the compile-time view of one rule.
type model struct {
	*rule
	ctx    *fst.Automaton   // union of the rule's context languages
	narrow []*fst.Automaton // subtracted from ctx for the left-arrow part
}

func (m *model) leftArrow() bool { return m.Op.Coerces() || m.Op.Excludes() }

// byLex groups center labels by lexical symbol.
func (g *Grammar) byLex(m *model) map[domain.Symbol][]int {
	out := make(map[domain.Symbol][]int)
	for _, l := range m.centers {
		s := g.labels[l].Lex
		out[s] = append(out[s], l)
	}
	return out
}

func contains(set []int, l int) bool {
	for _, x := range set {
		if x == l {
			return true
		}
	}
	return false
}

func subset(a, b []int) bool {
	for _, x := range a {
		if !contains(b, x) {
			return false
		}
	}
	return true
}

func disjoint(a, b []int) bool {
	for _, x := range a {
		if contains(b, x) {
			return false
		}
	}
	return true
}

// leftClash returns the center labels on which the left-arrow components of
// a and b demand incompatible realizations of the same lexical symbol.
func (g *Grammar) leftClash(a, b *model) []int {
	if !a.leftArrow() || !b.leftArrow() {
		return nil
	}
	la, lb := g.byLex(a), g.byLex(b)
	var clash []int
	for s, wa := range la {
		wb, ok := lb[s]
		if !ok {
			continue
		}
		switch {
		case a.Op.Coerces() && b.Op.Coerces():
			if disjoint(wa, wb) {
				clash = append(append(clash, wa...), wb...)
			}
		case a.Op.Coerces() && b.Op.Excludes():
			if subset(wa, wb) {
				clash = append(clash, wa...)
			}
		case a.Op.Excludes() && b.Op.Coerces():
			if subset(wb, wa) {
				clash = append(clash, wb...)
			}
		}
	}
	return clash
}

func sharedRestricted(a, b *model) []int {
	if !a.Op.Restricts() || !b.Op.Restricts() {
		return nil
	}
	var out []int
	for _, l := range a.centers {
		if contains(b.centers, l) {
			out = append(out, l)
		}
	}
	return out
}

func (g *Grammar) pairs(ls []int) []domain.Pair {
	ls = append([]int(nil), ls...)
	sort.Ints(ls)
	var out []domain.Pair
	for i, l := range ls {
		if i > 0 && ls[i-1] == l {
			continue
		}
		out = append(out, g.labels[l])
	}
	return out
}

func newConflict(side domain.Side, a, b *model, pairs []domain.Pair) domain.Conflict {
	ra, rb := a.Name, b.Name
	if rb < ra {
		ra, rb = rb, ra
	}
	return domain.Conflict{Side: side, RuleA: ra, RuleB: rb, Pairs: pairs}
}

// detect finds every conflicting rule pair. The result does not depend on
// the order of the rules.
func (g *Grammar) detect(models []*model) []domain.Conflict {
	var out []domain.Conflict
	for i, a := range models {
		for _, b := range models[i+1:] {
			overlap := !a.ctx.Intersect(b.ctx).IsEmpty()
			if !overlap {
				continue
			}
			if clash := g.leftClash(a, b); len(clash) > 0 {
				out = append(out, newConflict(domain.SideLeft, a, b, g.pairs(clash)))
			}
			if shared := sharedRestricted(a, b); len(shared) > 0 && !a.ctx.Equivalent(b.ctx) {
				out = append(out, newConflict(domain.SideRight, a, b, g.pairs(shared)))
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if x.Side != y.Side {
			return x.Side < y.Side
		}
		if x.RuleA != y.RuleA {
			return x.RuleA < y.RuleA
		}
		return x.RuleB < y.RuleB
	})
	return out
}

// resolve applies the resolution policy to the detected conflicts, or fails
// on the first conflict whose side may not be resolved.
func (g *Grammar) resolve(models []*model, conflicts []domain.Conflict) error {
	byName := make(map[string]*model, len(models))
	for _, m := range models {
		byName[m.Name] = m
	}
	for _, c := range conflicts {
		if (c.Side == domain.SideLeft && !g.cfg.ResolveLeftConflicts) || (c.Side == domain.SideRight && !g.cfg.ResolveRightConflicts) {
			return &domain.ConflictError{Conflict: c}
		}
	}
	for i := range conflicts {
		c := &conflicts[i]
		a, b := byName[c.RuleA], byName[c.RuleB]
		switch c.Side {
		case domain.SideLeft:
			aInB, bInA := a.ctx.SubsetOf(b.ctx), b.ctx.SubsetOf(a.ctx)
			switch {
			case aInB && !bInA:
				b.narrow = append(b.narrow, a.ctx)
				c.Resolution = fmt.Sprintf("%q is more specific; %q no longer applies in its contexts", a.Name, b.Name)
			case bInA && !aInB:
				a.narrow = append(a.narrow, b.ctx)
				c.Resolution = fmt.Sprintf("%q is more specific; %q no longer applies in its contexts", b.Name, a.Name)
			default:
				a.narrow = append(a.narrow, b.ctx)
				b.narrow = append(b.narrow, a.ctx)
				c.Resolution = "both rules narrowed to their non-overlapping contexts"
			}
		case domain.SideRight:
			c.Resolution = "contexts of the shared pairs merged"
		}
		c.Resolved = true
	}
	return nil
}
