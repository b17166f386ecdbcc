package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/ports"
)

var (
	_ ports.GrammarLoader      = (*Loader)(nil)
	_ ports.ConfigurableLoader = (*Loader)(nil)
	_ ports.Watchable          = (*Loader)(nil)
)

// Loader adapts the Loam library to the GrammarLoader interface.
// Each document holds one grammar: its body is the grammar text and its
// frontmatter the GrammarMetadata.
type Loader struct {
	Repo *loam.TypedRepository[GrammarMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[GrammarMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numeric frontmatter values as json.Number.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[GrammarMetadata](repo)), nil
}

// index maps grammar IDs to document IDs. A frontmatter id wins over the
// file name.
func (l *Loader) index(ctx context.Context) (map[string]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	idx := make(map[string]string, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := idx[id]; ok {
			return nil, fmt.Errorf("collision detected: grammar ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		idx[id] = trimExtension(doc.ID)
	}
	return idx, nil
}

func (l *Loader) get(id string) (*loam.DocumentModel[GrammarMetadata], error) {
	ctx := context.Background()
	idx, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	docID, ok := idx[trimExtension(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGrammarNotFound, id)
	}
	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return doc, nil
}

// GetGrammar returns the body of the grammar document.
func (l *Loader) GetGrammar(id string) ([]byte, error) {
	doc, err := l.get(id)
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(doc.Content)), nil
}

// ListGrammars lists all grammar IDs in the repository, sorted.
func (l *Loader) ListGrammars() ([]string, error) {
	idx, err := l.index(context.Background())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GrammarOptions returns the frontmatter options of a grammar.
func (l *Loader) GrammarOptions(id string) (map[string]any, error) {
	doc, err := l.get(id)
	if err != nil {
		return nil, err
	}
	return doc.Data.Options, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
