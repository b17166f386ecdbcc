// Package alphabet implements the second compilation stage. It re-reads the
// normalized rule stream, collects the pair alphabet and the symbols used
// outside pair notation, and closes the alphabet so that rule automata can
// be built over a finite label universe.
package alphabet

import (
	"log/slog"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/internal/syntax"
	"github.com/aretw0/twolc/pkg/domain"
)

// Lexer tokenizes the normalized stream. Pairs always have both sides here.
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

// Resolver accumulates the alphabet of the streams it resolves.
// Call Reset before reusing an instance for an unrelated grammar.
type Resolver struct {
	logger *slog.Logger

	total    []domain.Pair
	hasPair  map[domain.Pair]bool
	pairSyms []domain.Symbol // concrete sides of partial pairs
	bare     []domain.Symbol
	hasBare  map[domain.Symbol]bool
	rules    []string
}

// New creates a Resolver. A nil logger discards diagnostics.
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Resolver{logger: logger}
	r.Reset()
	return r
}

// Reset clears everything collected so far.
func (r *Resolver) Reset() {
	r.total = nil
	r.hasPair = make(map[domain.Pair]bool)
	r.pairSyms = nil
	r.bare = nil
	r.hasBare = make(map[domain.Symbol]bool)
	r.rules = nil
}

func (r *Resolver) addPair(p domain.Pair) {
	if !r.hasPair[p] {
		r.hasPair[p] = true
		r.total = append(r.total, p)
	}
}

func (r *Resolver) addBare(s domain.Symbol) {
	if s == domain.Epsilon || r.hasBare[s] {
		return
	}
	r.hasBare[s] = true
	r.bare = append(r.bare, s)
}

// Resolve parses a normalized stream and collects its symbols. On failure
// nothing from this stream is kept.
func (r *Resolver) Resolve(name, stream string) error {
	c, err := syntax.Tokenize(Lexer, domain.StageAlphabet, name, stream)
	if err != nil {
		return err
	}
	p := &pass{c: c}
	if err := p.parse(); err != nil {
		return err
	}
	for _, pr := range p.pairs {
		r.addPair(pr)
	}
	r.pairSyms = append(r.pairSyms, p.partial...)
	for _, s := range p.bare {
		r.addBare(s)
	}
	r.rules = append(r.rules, p.rules...)
	r.logger.Debug("stream resolved", "grammar", name, "rules", len(p.rules), "pairs", len(r.total))
	return nil
}

// Complete closes the alphabet: every symbol on either side of a pair gets
// its identity pair. It is idempotent.
func (r *Resolver) Complete() {
	var syms []domain.Symbol
	seen := make(map[domain.Symbol]bool)
	add := func(s domain.Symbol) {
		if s != domain.Epsilon && s != domain.Any && !seen[s] {
			seen[s] = true
			syms = append(syms, s)
		}
	}
	for _, p := range r.total {
		add(p.Lex)
		add(p.Surf)
	}
	for _, s := range r.pairSyms {
		add(s)
	}
	before := len(r.total)
	for _, s := range syms {
		r.addPair(domain.Identity(s))
	}
	r.logger.Info("alphabet completed", "pairs", len(r.total), "added", len(r.total)-before, "non_alphabet", len(r.bare))
}

// TotalAlphabet returns the pair alphabet in first-occurrence order.
func (r *Resolver) TotalAlphabet() []domain.Pair {
	return append([]domain.Pair(nil), r.total...)
}

// NonAlphabet returns every symbol used outside pair notation.
func (r *Resolver) NonAlphabet() []domain.Symbol {
	return append([]domain.Symbol(nil), r.bare...)
}

// Alphabet returns both sequences.
func (r *Resolver) Alphabet() domain.Alphabet {
	return domain.Alphabet{Total: r.TotalAlphabet(), NonAlphabet: r.NonAlphabet()}
}

// Serialize renders the input of the grammar compiler: the alphabet header
// followed by the normalized rules.
func (r *Resolver) Serialize() string {
	var sb strings.Builder
	sb.WriteString(headerAlphabet)
	for _, p := range r.total {
		sb.WriteString(" " + p.String())
	}
	sb.WriteString(" ;\n" + headerNonAlphabet)
	for _, s := range r.bare {
		sb.WriteString(" " + domain.EscapeSymbol(s))
	}
	sb.WriteString(" ;\n" + headerRules + "\n")
	for _, line := range r.rules {
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

const (
	headerAlphabet    = "Alphabet"
	headerNonAlphabet = "NonAlphabet"
	headerRules       = "Rules"
)
