package domain

import (
	"fmt"
	"strings"
)

// Symbol is an atomic token of the grammar. Identity is value equality.
type Symbol string

// Reserved symbols.
const (
	// Epsilon is the empty symbol, as in a:0 (deletion) or 0:e (epenthesis).
	Epsilon Symbol = "0"
	// Any matches every symbol on its side of a pair.
	Any Symbol = "?"
	// Other stands for every symbol that is not part of the alphabet.
	Other Symbol = "@_OTHER_SYMBOL_@"
	// Boundary marks the edge of a word inside a context expression.
	Boundary Symbol = ".#."
)

// specialChars are the characters that must be escaped with % to be part of a symbol.
const specialChars = " \t\r\n\f!\"_;:[]()|*+?=<>/%~"

// EscapeSymbol returns the source form of a symbol, prefixing special characters with %.
func EscapeSymbol(s Symbol) string {
	if s == Any || s == Epsilon {
		return string(s)
	}
	if !strings.ContainsAny(string(s), specialChars) {
		return string(s)
	}
	var sb strings.Builder
	for _, r := range string(s) {
		if strings.ContainsRune(specialChars, r) {
			sb.WriteByte('%')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// UnescapeSymbol removes % escapes from a source token.
func UnescapeSymbol(tok string) Symbol {
	if !strings.Contains(tok, "%") {
		return Symbol(tok)
	}
	var sb strings.Builder
	escaped := false
	for _, r := range tok {
		if !escaped && r == '%' {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	return Symbol(sb.String())
}

// Pair is an ordered lexical:surface correspondence.
type Pair struct {
	Lex  Symbol `json:"lex" yaml:"lex"`
	Surf Symbol `json:"surf" yaml:"surf"`
}

// Identity returns the pair s:s.
func Identity(s Symbol) Pair {
	return Pair{Lex: s, Surf: s}
}

// IsIdentity reports whether both sides are the same symbol.
func (p Pair) IsIdentity() bool {
	return p.Lex == p.Surf
}

// IsConcrete reports whether neither side is the Any wildcard.
func (p Pair) IsConcrete() bool {
	return p.Lex != Any && p.Surf != Any
}

// String returns the escaped source form "lex:surf".
func (p Pair) String() string {
	return EscapeSymbol(p.Lex) + ":" + EscapeSymbol(p.Surf)
}

// ParsePair parses a normalized pair token "lex:surf".
// The separator is the first unescaped colon.
func ParsePair(tok string) (Pair, error) {
	escaped := false
	for i, r := range tok {
		switch {
		case escaped:
			escaped = false
		case r == '%':
			escaped = true
		case r == ':':
			lex, surf := tok[:i], tok[i+1:]
			if lex == "" || surf == "" {
				return Pair{}, fmt.Errorf("incomplete pair %q", tok)
			}
			return Pair{Lex: UnescapeSymbol(lex), Surf: UnescapeSymbol(surf)}, nil
		}
	}
	return Pair{}, fmt.Errorf("not a pair: %q", tok)
}
