package grammar

import (
	"github.com/aretw0/twolc/pkg/domain"
)

// expr is a context expression with every atom resolved to a label set.
type expr interface{ isExpr() }

type (
	labelSet   []int
	sequence   []expr
	union      []expr
	star       struct{ e expr }
	plus       struct{ e expr }
	optional   struct{ e expr }
	complement struct{ e expr }
)

func (labelSet) isExpr()   {}
func (sequence) isExpr()   {}
func (union) isExpr()      {}
func (star) isExpr()       {}
func (plus) isExpr()       {}
func (optional) isExpr()   {}
func (complement) isExpr() {}

func (g *Grammar) bindAlt(ruleName string, a *alt) (expr, error) {
	var u union
	for _, s := range a.Seqs {
		var sq sequence
		for _, t := range s.Terms {
			e, err := g.bindTerm(ruleName, t)
			if err != nil {
				return nil, err
			}
			sq = append(sq, e)
		}
		u = append(u, sq)
	}
	if len(u) == 1 {
		return u[0], nil
	}
	return u, nil
}

func (g *Grammar) bindTerm(ruleName string, t *term) (expr, error) {
	e, err := g.bindAtom(ruleName, t.Atom)
	if err != nil {
		return nil, err
	}
	for _, r := range t.Repeat {
		if r == "*" {
			e = star{e}
		} else {
			e = plus{e}
		}
	}
	if t.Complement {
		e = complement{e}
	}
	return e, nil
}

func (g *Grammar) bindAtom(ruleName string, a *atom) (expr, error) {
	switch {
	case a.Pair != "":
		p, err := domain.ParsePair(a.Pair)
		if err != nil {
			return nil, g.errorAt(a.Pos, ruleName, domain.ErrSyntax, "%s", err)
		}
		ls := g.match(p)
		if len(ls) == 0 {
			return nil, g.errorAt(a.Pos, ruleName, domain.ErrUnknownSymbol, "pair %s is not in the alphabet", p)
		}
		return labelSet(ls), nil
	case a.Symbol != "":
		s := domain.UnescapeSymbol(a.Symbol)
		ls := g.match(domain.Pair{Lex: s, Surf: domain.Any})
		if len(ls) == 0 {
			return nil, g.errorAt(a.Pos, ruleName, domain.ErrUnknownSymbol, "symbol %s is not in the alphabet", a.Symbol)
		}
		return labelSet(ls), nil
	case a.Any:
		return labelSet(g.match(domain.Pair{Lex: domain.Any, Surf: domain.Any})), nil
	case a.Group != nil:
		return g.bindAlt(ruleName, a.Group)
	default:
		e, err := g.bindAlt(ruleName, a.Optional)
		if err != nil {
			return nil, err
		}
		return optional{e}, nil
	}
}
