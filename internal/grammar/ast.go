package grammar

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/aretw0/twolc/internal/syntax"
)

// Lexer tokenizes the compiler input produced by the alphabet stage.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "comment", Pattern: syntax.CommentPattern},
	{Name: "whitespace", Pattern: syntax.WhitespacePattern},
	{Name: syntax.KindName, Pattern: syntax.NamePattern},
	{Name: syntax.KindOperator, Pattern: syntax.OperatorPattern},
	{Name: syntax.KindBoundary, Pattern: syntax.BoundaryPattern},
	{Name: syntax.KindPair, Pattern: syntax.PairPattern},
	{Name: syntax.KindSymbol, Pattern: syntax.SymbolPattern},
	{Name: syntax.KindPunct, Pattern: syntax.PunctPattern},
})

var parser = participle.MustBuild[file](
	participle.Lexer(Lexer),
	participle.Unquote(syntax.KindName),
	participle.UseLookahead(2),
)

type file struct {
	Pos         lexer.Position
	Alphabet    []string    `"Alphabet" @( Pair | Symbol )* ";"`
	NonAlphabet []string    `"NonAlphabet" @Symbol* ";"`
	Rules       []*ruleDecl `"Rules" @@*`
}

type ruleDecl struct {
	Pos      lexer.Position
	Name     string         `@Name`
	Center   []string       `( @Pair | "[" @Pair ( "|" @Pair )* "]" )`
	Op       string         `@Operator`
	Contexts []*contextDecl `( @@ ";" )+`
}

type contextDecl struct {
	Pos         lexer.Position
	LeftAnchor  bool `@Boundary?`
	Left        *alt `@@? "_"`
	Right       *alt `@@?`
	RightAnchor bool `@Boundary?`
}

type alt struct {
	Seqs []*seq `@@ ( "|" @@ )*`
}

type seq struct {
	Terms []*term `@@+`
}

// term is an atom with postfix repetition; a leading ~ complements the whole term.
type term struct {
	Pos        lexer.Position
	Complement bool     `@"~"?`
	Atom       *atom    `@@`
	Repeat     []string `@( "*" | "+" )*`
}

type atom struct {
	Pos      lexer.Position
	Pair     string `  @Pair`
	Symbol   string `| @Symbol`
	Any      bool   `| @"?"`
	Group    *alt   `| "[" @@ "]"`
	Optional *alt   `| "(" @@ ")"`
}

func (a *alt) String() string {
	if a == nil {
		return ""
	}
	parts := make([]string, len(a.Seqs))
	for i, s := range a.Seqs {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}

func (s *seq) String() string {
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

func (t *term) String() string {
	var sb strings.Builder
	if t.Complement {
		sb.WriteString("~")
	}
	sb.WriteString(t.Atom.String())
	for _, r := range t.Repeat {
		sb.WriteString(r)
	}
	return sb.String()
}

func (a *atom) String() string {
	switch {
	case a.Pair != "":
		return a.Pair
	case a.Symbol != "":
		return a.Symbol
	case a.Any:
		return "?"
	case a.Group != nil:
		return "[ " + a.Group.String() + " ]"
	default:
		return "( " + a.Optional.String() + " )"
	}
}
