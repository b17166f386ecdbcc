// Package syntax holds the token patterns and the token cursor shared by the
// hand-written parsers of the preprocessing and alphabet stages.
package syntax

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/aretw0/twolc/pkg/domain"
)

// Token patterns. Each stage assembles its own lexer definition from these.
const (
	CommentPattern    = `![^\n]*`
	WhitespacePattern = `\s+`
	NamePattern       = `"(?:\\.|[^"\\])*"`
	OperatorPattern   = `<=>|/<=|<=|=>`
	BoundaryPattern   = `\.#\.`
	SymbolPattern     = `(?:%.|[^\s!"_;:\[\]()|*+?=<>/%~])+`
	SidePattern       = `(?:` + SymbolPattern + `|\?)`
	PairPattern       = SidePattern + `:` + SidePattern
	PunctPattern      = `[_;\[\]()|*+?=~]`
)

// Token kinds, as named in the lexer definitions.
const (
	KindName     = "Name"
	KindOperator = "Operator"
	KindBoundary = "Boundary"
	KindPair     = "Pair"
	KindSymbol   = "Symbol"
	KindPunct    = "Punct"
)

// Cursor walks a fully lexed token stream.
type Cursor struct {
	stage domain.Stage
	toks  []lexer.Token
	kinds map[lexer.TokenType]string
	i     int
}

// Tokenize lexes input with def. Lexing errors are returned as grammar errors of the stage.
func Tokenize(def lexer.Definition, stage domain.Stage, name, input string) (*Cursor, error) {
	lx, err := def.Lex(name, strings.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("failed to start lexer: %w", err)
	}
	toks, err := lexer.ConsumeAll(lx)
	if err != nil {
		return nil, lexError(stage, name, err)
	}
	kinds := make(map[lexer.TokenType]string)
	for k, v := range def.Symbols() {
		kinds[v] = k
	}
	return &Cursor{stage: stage, toks: toks, kinds: kinds}, nil
}

func lexError(stage domain.Stage, name string, err error) error {
	var le *lexer.Error
	if errors.As(err, &le) {
		return &domain.GrammarError{
			Stage: stage,
			Pos:   domain.Position{Source: name, Line: le.Pos.Line, Col: le.Pos.Column},
			Msg:   le.Msg,
			Err:   domain.ErrSyntax,
		}
	}
	return &domain.GrammarError{Stage: stage, Pos: domain.Position{Source: name}, Msg: err.Error(), Err: domain.ErrSyntax}
}

// Peek returns the next token without consuming it.
func (c *Cursor) Peek() lexer.Token { return c.toks[c.i] }

// Next consumes the next token. At the end it keeps returning EOF.
func (c *Cursor) Next() lexer.Token {
	t := c.toks[c.i]
	if !t.EOF() {
		c.i++
	}
	return t
}

// EOF reports whether the stream is exhausted.
func (c *Cursor) EOF() bool { return c.Peek().EOF() }

// Kind returns the lexer rule name of t.
func (c *Cursor) Kind(t lexer.Token) string {
	if t.EOF() {
		return "EOF"
	}
	return c.kinds[t.Type]
}

// Is reports whether t is of kind and, when values are given, has one of them.
func (c *Cursor) Is(t lexer.Token, kind string, values ...string) bool {
	if c.Kind(t) != kind {
		return false
	}
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if t.Value == v {
			return true
		}
	}
	return false
}

// Accept consumes the next token if it matches.
func (c *Cursor) Accept(kind string, values ...string) (lexer.Token, bool) {
	if c.Is(c.Peek(), kind, values...) {
		return c.Next(), true
	}
	return lexer.Token{}, false
}

// Expect consumes the next token or fails with a syntax error.
func (c *Cursor) Expect(kind string, values ...string) (lexer.Token, error) {
	if t, ok := c.Accept(kind, values...); ok {
		return t, nil
	}
	want := kind
	if len(values) > 0 {
		want = strconv.Quote(strings.Join(values, " or "))
	}
	return lexer.Token{}, c.Errorf(c.Peek(), "expected %s, got %s", want, Describe(c.Peek()))
}

// Errorf builds a syntax error located at t.
func (c *Cursor) Errorf(t lexer.Token, format string, args ...any) *domain.GrammarError {
	return &domain.GrammarError{Stage: c.stage, Pos: Pos(t), Msg: fmt.Sprintf(format, args...), Err: domain.ErrSyntax}
}

// Pos converts a token position.
func Pos(t lexer.Token) domain.Position {
	return domain.Position{Source: t.Pos.Filename, Line: t.Pos.Line, Col: t.Pos.Column}
}

// Describe renders a token for error messages.
func Describe(t lexer.Token) string {
	if t.EOF() {
		return "end of input"
	}
	return strconv.Quote(t.Value)
}

// SplitPair splits a raw pair token at its first unescaped colon.
func SplitPair(tok string) (lex, surf string, ok bool) {
	escaped := false
	for i, r := range tok {
		switch {
		case escaped:
			escaped = false
		case r == '%':
			escaped = true
		case r == ':':
			return tok[:i], tok[i+1:], true
		}
	}
	return "", "", false
}
