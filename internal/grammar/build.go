package grammar

import (
	"github.com/aretw0/twolc/pkg/fst"
)

// builder compiles expressions over the label universe plus one marker
// label that stands for the rule center.
type builder struct {
	labels    int // without marker
	marker    int
	sigma     *fst.Automaton
	sigmaStar *fst.Automaton
}

func newBuilder(labels int) *builder {
	all := make([]int, labels)
	for i := range all {
		all[i] = i
	}
	b := &builder{labels: labels, marker: labels}
	b.sigma = fst.Set(labels+1, all...)
	b.sigmaStar = b.sigma.Star()
	return b
}

func (b *builder) n() int { return b.labels + 1 }

func (b *builder) build(e expr) *fst.Automaton {
	switch e := e.(type) {
	case nil:
		return fst.EmptyString(b.n())
	case labelSet:
		return fst.Set(b.n(), e...)
	case sequence:
		a := fst.EmptyString(b.n())
		for _, x := range e {
			a = a.Concat(b.build(x))
		}
		return a
	case union:
		a := fst.Empty(b.n())
		for _, x := range e {
			a = a.Union(b.build(x))
		}
		return a
	case star:
		return b.build(e.e).Star()
	case plus:
		return b.build(e.e).Plus()
	case optional:
		return b.build(e.e).Optional()
	case complement:
		return b.sigmaStar.Minus(b.build(e.e))
	}
	panic(&fst.InvariantError{Op: "build", Msg: "unknown expression type"})
}

// context compiles "left _ right" into (Σ* left) ◇ (right Σ*), where an
// anchored side drops its Σ*.
func (b *builder) context(c contextExpr) *fst.Automaton {
	left := b.build(c.left)
	if !c.leftAnchor {
		left = b.sigmaStar.Concat(left)
	}
	right := b.build(c.right)
	if !c.rightAnchor {
		right = right.Concat(b.sigmaStar)
	}
	return left.Concat(fst.Set(b.n(), b.marker)).Concat(right)
}

// contexts returns the union of a rule's context languages.
func (b *builder) contexts(cs []contextExpr) *fst.Automaton {
	a := fst.Empty(b.n())
	for _, c := range cs {
		a = a.Union(b.context(c))
	}
	return a
}

// anywhere is Σ* ◇ Σ*: the center at any position.
func (b *builder) anywhere() *fst.Automaton {
	return b.sigmaStar.Concat(fst.Set(b.n(), b.marker)).Concat(b.sigmaStar)
}

// restrict forbids pairs in w outside ctx: ¬ subst(Σ*◇Σ* − ctx, ◇→w).
func (b *builder) restrict(w []int, ctx *fst.Automaton) *fst.Automaton {
	return b.anywhere().Minus(ctx).Substitute(b.marker, w).Complement()
}

// forbid rejects every string with a pair of w in ctx: ¬ subst(ctx, ◇→w).
func (b *builder) forbid(w []int, ctx *fst.Automaton) *fst.Automaton {
	return ctx.Substitute(b.marker, w).Complement()
}

// finish drops the marker label.
func (b *builder) finish(a *fst.Automaton) *fst.Automaton {
	return a.Restrict(b.labels)
}
