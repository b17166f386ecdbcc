// Package grammar implements the third compilation stage: it parses the
// rules against the resolved alphabet, builds one automaton per rule,
// detects and resolves conflicts between rules, and composes the result.
package grammar

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/pkg/domain"
)

// Grammar is a parsed rule set bound to its alphabet and label universe.
type Grammar struct {
	name     string
	cfg      domain.Config
	logger   *slog.Logger
	alphabet domain.Alphabet
	labels   []domain.Pair
	rules    []*rule
}

// rule is a parsed rule with its context expressions resolved to labels.
type rule struct {
	domain.Rule
	centers  []int
	contexts []contextExpr
}

type contextExpr struct {
	left, right             expr // nil means empty
	leftAnchor, rightAnchor bool
}

// Parse reads the compiler input. Every symbol is resolved against the
// alphabet header; unknown symbols are grammar errors.
func Parse(name, input string, cfg domain.Config, logger *slog.Logger) (*Grammar, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	f, err := parser.ParseString(name, input)
	if err != nil {
		return nil, syntaxError(name, err)
	}

	g := &Grammar{name: name, cfg: cfg, logger: logger}
	if err := g.bindAlphabet(f); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, d := range f.Rules {
		if seen[d.Name] {
			return nil, g.errorAt(d.Pos, d.Name, domain.ErrSyntax, "rule is defined more than once")
		}
		seen[d.Name] = true
		r, err := g.bindRule(d)
		if err != nil {
			return nil, err
		}
		g.rules = append(g.rules, r)
	}
	logger.Debug("grammar parsed", "grammar", name, "rules", len(g.rules), "labels", len(g.labels))
	return g, nil
}

func syntaxError(name string, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &domain.GrammarError{
			Stage: domain.StageCompile,
			Pos:   domain.Position{Source: name, Line: pos.Line, Col: pos.Column},
			Msg:   perr.Message(),
			Err:   domain.ErrSyntax,
		}
	}
	return &domain.GrammarError{Stage: domain.StageCompile, Pos: domain.Position{Source: name}, Msg: err.Error(), Err: domain.ErrSyntax}
}

func (g *Grammar) errorAt(pos lexer.Position, rule string, kind error, format string, args ...any) *domain.GrammarError {
	return &domain.GrammarError{
		Stage: domain.StageCompile,
		Rule:  rule,
		Pos:   domain.Position{Source: g.name, Line: pos.Line, Col: pos.Column},
		Msg:   fmt.Sprintf(format, args...),
		Err:   kind,
	}
}

// bindAlphabet builds the label universe: the total alphabet, then the
// identities of non-alphabet symbols, then the other-symbol label.
func (g *Grammar) bindAlphabet(f *file) error {
	has := make(map[domain.Pair]bool)
	add := func(p domain.Pair) {
		if !has[p] {
			has[p] = true
			g.labels = append(g.labels, p)
		}
	}
	for _, tok := range f.Alphabet {
		p, err := domain.ParsePair(tok)
		if err != nil {
			p = domain.Identity(domain.UnescapeSymbol(tok))
		}
		if !p.IsConcrete() {
			return g.errorAt(f.Pos, "", domain.ErrSyntax, "alphabet pair %q must name both sides", tok)
		}
		if !has[p] {
			g.alphabet.Total = append(g.alphabet.Total, p)
		}
		add(p)
	}
	for _, tok := range f.NonAlphabet {
		s := domain.UnescapeSymbol(tok)
		g.alphabet.NonAlphabet = append(g.alphabet.NonAlphabet, s)
		add(domain.Identity(s))
	}
	if g.cfg.Variant == domain.VariantOther {
		add(domain.Identity(domain.Other))
	}
	return nil
}

// Labels returns the label universe of the grammar's automata.
func (g *Grammar) Labels() []domain.Pair { return append([]domain.Pair(nil), g.labels...) }

// Alphabet returns the alphabet read from the header.
func (g *Grammar) Alphabet() domain.Alphabet { return g.alphabet }

// Rules returns the parsed rules in source order.
func (g *Grammar) Rules() []domain.Rule {
	out := make([]domain.Rule, len(g.rules))
	for i, r := range g.rules {
		out[i] = r.Rule
	}
	return out
}

// match returns the labels matching a possibly partial pair. The other-symbol
// label is only matched by the full wildcard.
func (g *Grammar) match(p domain.Pair) []int {
	var out []int
	for i, l := range g.labels {
		if l.Lex == domain.Other {
			if p.Lex == domain.Any && p.Surf == domain.Any {
				out = append(out, i)
			}
			continue
		}
		if (p.Lex == domain.Any || p.Lex == l.Lex) && (p.Surf == domain.Any || p.Surf == l.Surf) {
			out = append(out, i)
		}
	}
	return out
}

func (g *Grammar) bindRule(d *ruleDecl) (*rule, error) {
	op, err := domain.ParseOperator(d.Op)
	if err != nil {
		return nil, g.errorAt(d.Pos, d.Name, domain.ErrSyntax, "%s", err)
	}
	r := &rule{Rule: domain.Rule{
		Name: d.Name,
		Op:   op,
		Pos:  domain.Position{Source: g.name, Line: d.Pos.Line, Col: d.Pos.Column},
	}}
	inCenter := make(map[int]bool)
	for _, tok := range d.Center {
		p, err := domain.ParsePair(tok)
		if err != nil {
			return nil, g.errorAt(d.Pos, d.Name, domain.ErrSyntax, "%s", err)
		}
		ls := g.match(p)
		if len(ls) == 0 {
			return nil, g.errorAt(d.Pos, d.Name, domain.ErrUnknownSymbol, "center pair %s is not in the alphabet", p)
		}
		for _, l := range ls {
			if !inCenter[l] {
				inCenter[l] = true
				r.centers = append(r.centers, l)
				r.Center = append(r.Center, g.labels[l])
			}
		}
	}
	for _, c := range d.Contexts {
		ce := contextExpr{leftAnchor: c.LeftAnchor, rightAnchor: c.RightAnchor}
		if c.Left != nil {
			if ce.left, err = g.bindAlt(d.Name, c.Left); err != nil {
				return nil, err
			}
		}
		if c.Right != nil {
			if ce.right, err = g.bindAlt(d.Name, c.Right); err != nil {
				return nil, err
			}
		}
		r.contexts = append(r.contexts, ce)
		r.Contexts = append(r.Contexts, domain.Context{
			Left:          c.Left.String(),
			Right:         c.Right.String(),
			LeftAnchored:  c.LeftAnchor,
			RightAnchored: c.RightAnchor,
		})
	}
	return r, nil
}
