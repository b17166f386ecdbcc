package alphabet

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/aretw0/twolc/internal/syntax"
	"github.com/aretw0/twolc/pkg/domain"
)

// pass is one parse of a normalized stream.
type pass struct {
	c       *syntax.Cursor
	pairs   []domain.Pair
	partial []domain.Symbol
	bare    []domain.Symbol
	rules   []string
}

func (p *pass) parse() error {
	if _, err := p.c.Expect(syntax.KindSymbol, headerAlphabet); err != nil {
		return err
	}
alphabet:
	for {
		tok := p.c.Next()
		switch {
		case p.c.Is(tok, syntax.KindPunct, ";"):
			break alphabet
		case p.c.Is(tok, syntax.KindSymbol):
			if tok.Value == headerRules {
				return p.c.Errorf(tok, "alphabet is not terminated by %q", ";")
			}
			if s := domain.UnescapeSymbol(tok.Value); s != domain.Epsilon {
				p.pairs = append(p.pairs, domain.Identity(s))
			}
		case p.c.Is(tok, syntax.KindPair):
			pr := pairOf(tok)
			if !pr.IsConcrete() {
				return p.c.Errorf(tok, "alphabet pair %s must name both sides", syntax.Describe(tok))
			}
			p.pairs = append(p.pairs, pr)
		default:
			return p.c.Errorf(tok, "unexpected %s in alphabet", syntax.Describe(tok))
		}
	}
	if _, err := p.c.Expect(syntax.KindSymbol, headerRules); err != nil {
		return err
	}
	for !p.c.EOF() {
		if err := p.rule(); err != nil {
			return err
		}
	}
	return nil
}

func pairOf(tok lexer.Token) domain.Pair {
	lex, surf, _ := syntax.SplitPair(tok.Value)
	return domain.Pair{Lex: domain.UnescapeSymbol(lex), Surf: domain.UnescapeSymbol(surf)}
}

// collect records the symbols of a rule token.
func (p *pass) collect(tok lexer.Token) {
	switch p.c.Kind(tok) {
	case syntax.KindPair:
		pr := pairOf(tok)
		switch {
		case pr.IsConcrete():
			p.pairs = append(p.pairs, pr)
		case pr.Lex != domain.Any:
			p.partial = append(p.partial, pr.Lex)
		case pr.Surf != domain.Any:
			p.partial = append(p.partial, pr.Surf)
		}
	case syntax.KindSymbol:
		p.bare = append(p.bare, domain.UnescapeSymbol(tok.Value))
	}
}

func (p *pass) rule() error {
	nameTok, err := p.c.Expect(syntax.KindName)
	if err != nil {
		return err
	}
	line := []string{nameTok.Value}
	fail := func(tok lexer.Token, msg string) error {
		e := p.c.Errorf(tok, "%s", msg)
		e.Rule, _ = strconv.Unquote(nameTok.Value)
		return e
	}

	center := 0
	for !p.c.Is(p.c.Peek(), syntax.KindOperator) {
		tok := p.c.Next()
		if tok.EOF() || p.c.Is(tok, syntax.KindName) || p.c.Is(tok, syntax.KindPunct, ";", "_") {
			return fail(tok, "rule has no operator")
		}
		if p.c.Is(tok, syntax.KindPair) {
			center++
		} else if !p.c.Is(tok, syntax.KindPunct, "[", "|", "]") {
			return fail(tok, "rule center must consist of pairs")
		}
		p.collect(tok)
		line = append(line, tok.Value)
	}
	op := p.c.Next()
	if center == 0 {
		return fail(op, "rule has no center")
	}
	line = append(line, op.Value)

	for {
		centers := 0
		for {
			tok := p.c.Next()
			if tok.EOF() || p.c.Is(tok, syntax.KindName) {
				return fail(tok, "context is not terminated by \";\"")
			}
			if p.c.Is(tok, syntax.KindOperator) {
				return fail(tok, "rule has more than one operator")
			}
			line = append(line, tok.Value)
			if p.c.Is(tok, syntax.KindPunct, ";") {
				break
			}
			if p.c.Is(tok, syntax.KindPunct, "_") {
				centers++
			}
			p.collect(tok)
		}
		if centers != 1 {
			return fail(op, "context must contain exactly one \"_\"")
		}
		if next := p.c.Peek(); next.EOF() || p.c.Is(next, syntax.KindName) {
			break
		}
	}
	p.rules = append(p.rules, strings.Join(line, " "))
	return nil
}
