package preprocess

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/aretw0/twolc/internal/syntax"
)

// Lexer tokenizes raw grammar text. Pairs may have an empty side here
// ("a:" and ":b"); they are normalized to "a:?" and "?:b".
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "comment", Pattern: syntax.CommentPattern},
	{Name: "whitespace", Pattern: syntax.WhitespacePattern},
	{Name: syntax.KindName, Pattern: syntax.NamePattern},
	{Name: syntax.KindOperator, Pattern: syntax.OperatorPattern},
	{Name: syntax.KindBoundary, Pattern: syntax.BoundaryPattern},
	{Name: syntax.KindPair, Pattern: `(?:` + syntax.SidePattern + `)?:(?:` + syntax.SidePattern + `)?`},
	{Name: syntax.KindSymbol, Pattern: syntax.SymbolPattern},
	{Name: syntax.KindPunct, Pattern: syntax.PunctPattern},
})

const (
	sectionAlphabet    = "Alphabet"
	sectionSets        = "Sets"
	sectionDefinitions = "Definitions"
	sectionRules       = "Rules"

	keywordWhere   = "where"
	keywordIn      = "in"
	keywordMatched = "matched"
	keywordFreely  = "freely"
)

var sections = []string{sectionAlphabet, sectionSets, sectionDefinitions, sectionRules}
