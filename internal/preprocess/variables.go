package preprocess

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/aretw0/twolc/internal/syntax"
	"github.com/aretw0/twolc/pkg/domain"
)

type variable struct {
	name   string
	values []domain.Symbol
}

type assignment struct {
	name  string
	value domain.Symbol
}

// binding assigns one value to each rule variable.
type binding []assignment

func (b binding) String() string {
	parts := make([]string, len(b))
	for i, a := range b {
		parts[i] = a.name + "=" + domain.EscapeSymbol(a.value)
	}
	return strings.Join(parts, ", ")
}

func (b binding) lookup(raw string) (string, bool) {
	for _, a := range b {
		if a.name == raw {
			return domain.EscapeSymbol(a.value), true
		}
	}
	return "", false
}

// apply substitutes variables in bare symbols and in pair sides.
func (b binding) apply(toks []lexer.Token) []lexer.Token {
	if len(b) == 0 {
		return toks
	}
	out := make([]lexer.Token, len(toks))
	for i, tok := range toks {
		out[i] = tok
		if v, ok := b.lookup(tok.Value); ok {
			out[i].Value = v
			continue
		}
		if lex, surf, ok := syntax.SplitPair(tok.Value); ok {
			if v, ok := b.lookup(lex); ok {
				lex = v
			}
			if v, ok := b.lookup(surf); ok {
				surf = v
			}
			out[i].Value = lex + ":" + surf
		}
	}
	return out
}

// where parses "where V in ( a b ) W in Set [matched|freely] ;" and returns
// the bindings in expansion order.
func (st *run) where(rule string) ([]binding, error) {
	var (
		vars    []variable
		matched bool
	)
	for {
		if tok, ok := st.c.Accept(syntax.KindPunct, ";"); ok {
			if len(vars) == 0 {
				return nil, st.ruleErr(tok, rule, "where clause declares no variables")
			}
			break
		}
		if tok, ok := st.c.Accept(syntax.KindSymbol, keywordMatched, keywordFreely); ok {
			if len(vars) == 0 {
				return nil, st.ruleErr(tok, rule, "where clause declares no variables")
			}
			matched = tok.Value == keywordMatched
			if _, err := st.c.Expect(syntax.KindPunct, ";"); err != nil {
				return nil, err
			}
			break
		}
		v, err := st.variable(rule)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}

	if matched {
		n := len(vars[0].values)
		for _, v := range vars[1:] {
			if len(v.values) != n {
				return nil, st.ruleErr(st.c.Peek(), rule, "matched variables must have the same number of values")
			}
		}
		out := make([]binding, n)
		for i := range out {
			for _, v := range vars {
				out[i] = append(out[i], assignment{name: v.name, value: v.values[i]})
			}
		}
		return out, nil
	}

	out := []binding{nil}
	for _, v := range vars {
		var next []binding
		for _, b := range out {
			for _, val := range v.values {
				nb := append(append(binding(nil), b...), assignment{name: v.name, value: val})
				next = append(next, nb)
			}
		}
		out = next
	}
	return out, nil
}

func (st *run) variable(rule string) (variable, error) {
	tok, err := st.c.Expect(syntax.KindSymbol)
	if err != nil {
		return variable{}, err
	}
	v := variable{name: tok.Value}
	if _, err := st.c.Expect(syntax.KindSymbol, keywordIn); err != nil {
		return variable{}, err
	}
	if _, ok := st.c.Accept(syntax.KindPunct, "("); ok {
		for {
			t := st.c.Next()
			if st.c.Is(t, syntax.KindPunct, ")") {
				break
			}
			if !st.c.Is(t, syntax.KindSymbol) {
				return variable{}, st.ruleErr(t, rule, "unexpected "+syntax.Describe(t)+" in variable values")
			}
			if members, ok := st.lookupSet(t.Value); ok {
				v.values = append(v.values, members...)
				continue
			}
			v.values = append(v.values, domain.UnescapeSymbol(t.Value))
		}
	} else {
		t, err := st.c.Expect(syntax.KindSymbol)
		if err != nil {
			return variable{}, err
		}
		members, ok := st.lookupSet(t.Value)
		if !ok {
			return variable{}, st.ruleErr(t, rule, "unknown set "+syntax.Describe(t))
		}
		v.values = members
	}
	if len(v.values) == 0 {
		return variable{}, st.ruleErr(tok, rule, "variable "+v.name+" has no values")
	}
	return v, nil
}
