// Package preprocess implements the first compilation stage: it reads raw
// grammar text, expands sets, definitions and rule variables in place, and
// emits a normalized rule stream together with the referenced symbols.
package preprocess

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/internal/syntax"
	"github.com/aretw0/twolc/pkg/domain"
)

// Output is the normalized grammar handed to the alphabet stage.
type Output struct {
	// Stream is the normalized grammar: an Alphabet line, a Rules line and one rule per line.
	Stream string
	// Symbols lists every concrete symbol referenced, in first-occurrence order.
	Symbols []domain.Symbol
	// Origins maps each emitted rule name to the position of its source rule.
	Origins map[string]domain.Position
	// Rules is the number of emitted rules, after variable expansion.
	Rules int
}

type definition struct {
	tokens  []string
	symbols []domain.Symbol
}

// Preprocessor keeps the set and definition tables of the grammars it has read.
// Call Reset before reusing an instance for an unrelated grammar.
type Preprocessor struct {
	logger *slog.Logger
	sets   map[string][]domain.Symbol
	defs   map[string]definition
	used   map[string]bool
}

// New creates a Preprocessor. A nil logger discards diagnostics.
func New(logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Preprocessor{logger: logger}
	p.Reset()
	return p
}

// Reset clears the set and definition tables.
func (p *Preprocessor) Reset() {
	p.sets = make(map[string][]domain.Symbol)
	p.defs = make(map[string]definition)
	p.used = make(map[string]bool)
}

// Run preprocesses one grammar. On failure no output is returned.
func (p *Preprocessor) Run(name string, r io.Reader) (*Output, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar %q: %w", name, err)
	}
	c, err := syntax.Tokenize(Lexer, domain.StagePreprocess, name, string(data))
	if err != nil {
		return nil, err
	}
	st := &run{
		Preprocessor: p,
		c:            c,
		seen:         make(map[domain.Symbol]bool),
		origins:      make(map[string]domain.Position),
		sections:     make(map[string]bool),
	}
	if err := st.parse(); err != nil {
		return nil, err
	}
	p.warnUnused()

	var sb strings.Builder
	sb.WriteString(sectionAlphabet)
	for _, t := range st.alphabet {
		sb.WriteString(" " + t)
	}
	sb.WriteString(" ;\n" + sectionRules + "\n")
	for _, line := range st.rules {
		sb.WriteString(line + "\n")
	}
	p.logger.Info("grammar preprocessed", "grammar", name, "rules", len(st.rules), "symbols", len(st.symbols))
	return &Output{Stream: sb.String(), Symbols: st.symbols, Origins: st.origins, Rules: len(st.rules)}, nil
}

func (p *Preprocessor) warnUnused() {
	var names []string
	for n := range p.sets {
		names = append(names, n)
	}
	for n := range p.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if !p.used[n] {
			p.logger.Warn("set or definition is never used", "name", n)
		}
	}
}

func (p *Preprocessor) defined(name string) bool {
	_, isSet := p.sets[name]
	_, isDef := p.defs[name]
	return isSet || isDef
}

func (p *Preprocessor) lookupSet(name string) ([]domain.Symbol, bool) {
	m, ok := p.sets[name]
	if ok {
		p.used[name] = true
	}
	return m, ok
}

// run is the state of one Run call.
type run struct {
	*Preprocessor
	c        *syntax.Cursor
	alphabet []string
	rules    []string
	symbols  []domain.Symbol
	seen     map[domain.Symbol]bool
	origins  map[string]domain.Position
	sections map[string]bool
}

func (st *run) ref(syms ...domain.Symbol) {
	for _, s := range syms {
		if s == domain.Any || s == domain.Epsilon || st.seen[s] {
			continue
		}
		st.seen[s] = true
		st.symbols = append(st.symbols, s)
	}
}

func (st *run) isSection(t lexer.Token) bool {
	return st.c.Is(t, syntax.KindSymbol, sections...)
}

func (st *run) atSectionEnd() bool {
	t := st.c.Peek()
	return t.EOF() || st.isSection(t)
}

func (st *run) parse() error {
	for !st.c.EOF() {
		tok := st.c.Next()
		if !st.isSection(tok) {
			return st.c.Errorf(tok, "expected a section keyword (%s), got %s", strings.Join(sections, ", "), syntax.Describe(tok))
		}
		if st.sections[tok.Value] {
			return st.c.Errorf(tok, "section %s appears more than once", tok.Value)
		}
		st.sections[tok.Value] = true
		var err error
		switch tok.Value {
		case sectionAlphabet:
			err = st.alphabetSection()
		case sectionSets:
			err = st.setsSection()
		case sectionDefinitions:
			err = st.definitionsSection()
		case sectionRules:
			err = st.rulesSection()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (st *run) alphabetSection() error {
	for {
		tok := st.c.Next()
		switch {
		case tok.EOF() || st.isSection(tok):
			return st.c.Errorf(tok, "alphabet is not terminated by %q", ";")
		case st.c.Is(tok, syntax.KindPunct, ";"):
			return nil
		case st.c.Is(tok, syntax.KindSymbol):
			if members, ok := st.lookupSet(tok.Value); ok {
				for _, m := range members {
					st.alphabet = append(st.alphabet, domain.EscapeSymbol(m))
				}
				st.ref(members...)
				continue
			}
			s := domain.UnescapeSymbol(tok.Value)
			st.alphabet = append(st.alphabet, domain.EscapeSymbol(s))
			st.ref(s)
		case st.c.Is(tok, syntax.KindPair):
			lex, surf, _ := syntax.SplitPair(tok.Value)
			if lex == "" || surf == "" || lex == "?" || surf == "?" {
				return st.c.Errorf(tok, "alphabet pair %s must name both sides", syntax.Describe(tok))
			}
			p := domain.Pair{Lex: domain.UnescapeSymbol(lex), Surf: domain.UnescapeSymbol(surf)}
			st.alphabet = append(st.alphabet, p.String())
			st.ref(p.Lex, p.Surf)
		default:
			return st.c.Errorf(tok, "unexpected %s in alphabet", syntax.Describe(tok))
		}
	}
}

// declaration reads "Name =" and checks that the name is free.
func (st *run) declaration(kind string) (string, error) {
	tok, err := st.c.Expect(syntax.KindSymbol)
	if err != nil {
		return "", err
	}
	if st.defined(tok.Value) {
		return "", st.c.Errorf(tok, "%s %q is already defined", kind, tok.Value)
	}
	if _, err := st.c.Expect(syntax.KindPunct, "="); err != nil {
		return "", err
	}
	return tok.Value, nil
}

func (st *run) setsSection() error {
	for !st.atSectionEnd() {
		name, err := st.declaration("set")
		if err != nil {
			return err
		}
		var members []domain.Symbol
		seen := make(map[domain.Symbol]bool)
		add := func(s domain.Symbol) {
			if !seen[s] {
				seen[s] = true
				members = append(members, s)
			}
		}
		for {
			tok := st.c.Next()
			if st.c.Is(tok, syntax.KindPunct, ";") {
				break
			}
			if !st.c.Is(tok, syntax.KindSymbol) || st.isSection(tok) {
				return st.c.Errorf(tok, "unexpected %s in set %q", syntax.Describe(tok), name)
			}
			if sub, ok := st.lookupSet(tok.Value); ok {
				for _, s := range sub {
					add(s)
				}
				continue
			}
			add(domain.UnescapeSymbol(tok.Value))
		}
		if len(members) == 0 {
			return st.c.Errorf(st.c.Peek(), "set %q is empty", name)
		}
		st.sets[name] = members
		st.logger.Debug("set defined", "set", name, "members", len(members))
	}
	return nil
}

func (st *run) definitionsSection() error {
	for !st.atSectionEnd() {
		name, err := st.declaration("definition")
		if err != nil {
			return err
		}
		var body []lexer.Token
		for {
			tok := st.c.Next()
			if tok.EOF() {
				return st.c.Errorf(tok, "definition %q is not terminated by %q", name, ";")
			}
			if st.c.Is(tok, syntax.KindPunct, ";") {
				break
			}
			body = append(body, tok)
		}
		if len(body) == 0 {
			return st.c.Errorf(st.c.Peek(), "definition %q is empty", name)
		}
		out, syms, err := st.expand(body, false)
		if err != nil {
			return err
		}
		st.defs[name] = definition{tokens: out, symbols: syms}
		st.logger.Debug("definition expanded", "definition", name, "tokens", len(out))
	}
	return nil
}

// alternatives renders items as a single token or a bracketed union.
func alternatives(items []string) []string {
	if len(items) == 1 {
		return items
	}
	out := []string{"["}
	for i, it := range items {
		if i > 0 {
			out = append(out, "|")
		}
		out = append(out, it)
	}
	return append(out, "]")
}

// expand normalizes a token sequence: definitions are inlined, sets become
// unions and pairs are completed.
func (st *run) expand(toks []lexer.Token, context bool) ([]string, []domain.Symbol, error) {
	var (
		out  []string
		syms []domain.Symbol
	)
	for _, tok := range toks {
		switch st.c.Kind(tok) {
		case syntax.KindBoundary:
			out = append(out, string(domain.Boundary))
		case syntax.KindPunct:
			if tok.Value == "=" || tok.Value == ";" || (tok.Value == "_" && !context) {
				return nil, nil, st.c.Errorf(tok, "unexpected %s", syntax.Describe(tok))
			}
			out = append(out, tok.Value)
		case syntax.KindSymbol:
			if st.isSection(tok) {
				return nil, nil, st.c.Errorf(tok, "unexpected section keyword %s", tok.Value)
			}
			if d, ok := st.defs[tok.Value]; ok {
				st.used[tok.Value] = true
				out = append(out, "[")
				out = append(out, d.tokens...)
				out = append(out, "]")
				syms = append(syms, d.symbols...)
				continue
			}
			if members, ok := st.lookupSet(tok.Value); ok {
				items := make([]string, len(members))
				for i, m := range members {
					items[i] = domain.EscapeSymbol(m)
				}
				out = append(out, alternatives(items)...)
				syms = append(syms, members...)
				continue
			}
			s := domain.UnescapeSymbol(tok.Value)
			out = append(out, domain.EscapeSymbol(s))
			syms = append(syms, s)
		case syntax.KindPair:
			pairs, err := st.expandPair(tok)
			if err != nil {
				return nil, nil, err
			}
			items := make([]string, len(pairs))
			for i, p := range pairs {
				items[i] = p.String()
				syms = append(syms, p.Lex, p.Surf)
			}
			out = append(out, alternatives(items)...)
		default:
			return nil, nil, st.c.Errorf(tok, "unexpected %s", syntax.Describe(tok))
		}
	}
	return out, syms, nil
}

func (st *run) expandPair(tok lexer.Token) ([]domain.Pair, error) {
	lex, surf, _ := syntax.SplitPair(tok.Value)
	if lex == "" && surf == "" {
		return nil, st.c.Errorf(tok, "incomplete pair %s", syntax.Describe(tok))
	}
	side := func(raw string) ([]domain.Symbol, bool, error) {
		if raw == "" || raw == string(domain.Any) {
			return []domain.Symbol{domain.Any}, false, nil
		}
		if _, ok := st.defs[raw]; ok {
			return nil, false, st.c.Errorf(tok, "definition %q cannot be used as a pair side", raw)
		}
		if members, ok := st.lookupSet(raw); ok {
			return members, true, nil
		}
		return []domain.Symbol{domain.UnescapeSymbol(raw)}, false, nil
	}
	ls, lset, err := side(lex)
	if err != nil {
		return nil, err
	}
	ss, sset, err := side(surf)
	if err != nil {
		return nil, err
	}
	if lset && sset {
		return nil, st.c.Errorf(tok, "pair %s has sets on both sides", syntax.Describe(tok))
	}
	var pairs []domain.Pair
	for _, l := range ls {
		for _, s := range ss {
			pairs = append(pairs, domain.Pair{Lex: l, Surf: s})
		}
	}
	return pairs, nil
}

func (st *run) rulesSection() error {
	for !st.atSectionEnd() {
		if err := st.rule(); err != nil {
			return err
		}
	}
	return nil
}

func (st *run) rule() error {
	nameTok, err := st.c.Expect(syntax.KindName)
	if err != nil {
		return err
	}
	name, err := strconv.Unquote(nameTok.Value)
	if err != nil {
		return st.c.Errorf(nameTok, "invalid rule name %s", nameTok.Value)
	}
	if name == "" {
		name = fmt.Sprintf("rule %d", len(st.rules)+1)
	}

	var center []lexer.Token
	for !st.c.Is(st.c.Peek(), syntax.KindOperator) {
		tok := st.c.Next()
		if tok.EOF() || st.c.Is(tok, syntax.KindPunct, ";") || st.c.Is(tok, syntax.KindName) {
			return st.ruleErr(tok, name, "rule has no operator")
		}
		center = append(center, tok)
	}
	op := st.c.Next()
	if err := st.checkCenter(name, nameTok, center); err != nil {
		return err
	}

	var contexts [][]lexer.Token
	for {
		var ctx []lexer.Token
		for {
			tok := st.c.Next()
			if tok.EOF() || st.c.Is(tok, syntax.KindName) || st.isSection(tok) {
				return st.ruleErr(tok, name, "context is not terminated by \";\"")
			}
			if st.c.Is(tok, syntax.KindOperator) {
				return st.ruleErr(tok, name, "rule has more than one operator")
			}
			if st.c.Is(tok, syntax.KindPunct, ";") {
				break
			}
			ctx = append(ctx, tok)
		}
		if err := st.checkContext(name, ctx, op); err != nil {
			return err
		}
		contexts = append(contexts, ctx)
		next := st.c.Peek()
		if next.EOF() || st.c.Is(next, syntax.KindName) || st.isSection(next) || st.c.Is(next, syntax.KindSymbol, keywordWhere) {
			break
		}
	}

	bindings := []binding{nil}
	if _, ok := st.c.Accept(syntax.KindSymbol, keywordWhere); ok {
		if bindings, err = st.where(name); err != nil {
			return err
		}
	}
	for _, b := range bindings {
		if err := st.emit(name, nameTok, center, op, contexts, b); err != nil {
			return err
		}
	}
	if len(bindings) > 1 {
		st.logger.Debug("rule variables expanded", "rule", name, "rules", len(bindings))
	}
	return nil
}

func (st *run) ruleErr(tok lexer.Token, rule, msg string) error {
	e := st.c.Errorf(tok, "%s", msg)
	e.Rule = rule
	return e
}

// checkCenter accepts "pair" or "[ pair | pair ... ]".
func (st *run) checkCenter(rule string, at lexer.Token, center []lexer.Token) error {
	if len(center) == 0 {
		return st.ruleErr(at, rule, "rule has no center")
	}
	if len(center) == 1 {
		if !st.c.Is(center[0], syntax.KindPair) {
			return st.ruleErr(center[0], rule, "rule center must be a pair")
		}
		return nil
	}
	last := len(center) - 1
	if !st.c.Is(center[0], syntax.KindPunct, "[") || !st.c.Is(center[last], syntax.KindPunct, "]") || len(center)%2 == 0 {
		return st.ruleErr(center[0], rule, "rule center must be a pair or a bracketed union of pairs")
	}
	for i, tok := range center[1:last] {
		if i%2 == 0 && !st.c.Is(tok, syntax.KindPair) {
			return st.ruleErr(tok, rule, "rule center must be a pair or a bracketed union of pairs")
		}
		if i%2 == 1 && !st.c.Is(tok, syntax.KindPunct, "|") {
			return st.ruleErr(tok, rule, "center pairs must be separated by \"|\"")
		}
	}
	return nil
}

func (st *run) checkContext(rule string, ctx []lexer.Token, at lexer.Token) error {
	centers := 0
	depth := 0
	for i, tok := range ctx {
		switch {
		case st.c.Is(tok, syntax.KindPunct, "_"):
			centers++
		case st.c.Is(tok, syntax.KindPunct, "[", "("):
			depth++
		case st.c.Is(tok, syntax.KindPunct, "]", ")"):
			depth--
			if depth < 0 {
				return st.ruleErr(tok, rule, "unbalanced bracket in context")
			}
		case st.c.Is(tok, syntax.KindBoundary):
			if i != 0 && i != len(ctx)-1 {
				return st.ruleErr(tok, rule, "word boundary is only allowed at the edge of a context")
			}
		}
	}
	if depth != 0 {
		return st.ruleErr(at, rule, "unbalanced bracket in context")
	}
	if centers != 1 {
		return st.ruleErr(at, rule, fmt.Sprintf("context must contain exactly one \"_\", found %d", centers))
	}
	return nil
}

func (st *run) emit(name string, nameTok lexer.Token, center []lexer.Token, op lexer.Token, contexts [][]lexer.Token, b binding) error {
	if len(b) > 0 {
		name = fmt.Sprintf("%s (%s)", name, b)
	}
	if _, dup := st.origins[name]; dup {
		return st.ruleErr(nameTok, name, "rule is defined more than once")
	}

	var items []string
	for _, tok := range b.apply(center) {
		if !st.c.Is(tok, syntax.KindPair) {
			continue
		}
		pairs, err := st.expandPair(tok)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			items = append(items, p.String())
			st.ref(p.Lex, p.Surf)
		}
	}

	parts := []string{strconv.Quote(name), strings.Join(alternatives(items), " "), op.Value}
	for _, ctx := range contexts {
		out, syms, err := st.expand(b.apply(ctx), true)
		if err != nil {
			return err
		}
		st.ref(syms...)
		parts = append(parts, strings.Join(out, " "), ";")
	}
	st.origins[name] = syntax.Pos(nameTok)
	st.rules = append(st.rules, strings.Join(parts, " "))
	return nil
}
