package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/twolc/pkg/domain"
)

// Loader implements ports.GrammarLoader using an in-memory map.
type Loader struct {
	grammars map[string][]byte
	options  map[string]map[string]any
}

// NewLoader creates a new Loader with the provided grammar texts.
func NewLoader(data map[string]string) *Loader {
	grammars := make(map[string][]byte)
	for k, v := range data {
		grammars[k] = []byte(v)
	}
	return &Loader{
		grammars: grammars,
		options:  make(map[string]map[string]any),
	}
}

// WithOptions attaches compile options to a grammar, as a frontmatter would.
func (l *Loader) WithOptions(id string, opts map[string]any) *Loader {
	l.options[id] = opts
	return l
}

// GetGrammar retrieves the raw grammar text by ID.
func (l *Loader) GetGrammar(id string) ([]byte, error) {
	content, ok := l.grammars[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGrammarNotFound, id)
	}
	return content, nil
}

// ListGrammars returns all available grammar IDs.
func (l *Loader) ListGrammars() ([]string, error) {
	keys := make([]string, 0, len(l.grammars))
	for k := range l.grammars {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

// GrammarOptions returns the options attached with WithOptions, or nil.
func (l *Loader) GrammarOptions(id string) (map[string]any, error) {
	if _, ok := l.grammars[id]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGrammarNotFound, id)
	}
	return l.options[id], nil
}
