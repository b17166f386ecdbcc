package ports

import "context"

// GrammarLoader defines how grammar sources are retrieved.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type GrammarLoader interface {
	// GetGrammar retrieves the raw grammar text by ID.
	// Returns domain.ErrGrammarNotFound if it does not exist.
	GetGrammar(id string) ([]byte, error)

	// ListGrammars returns the IDs of all available grammars.
	ListGrammars() ([]string, error)
}

// ConfigurableLoader is implemented by loaders whose grammars carry their own
// compile options (e.g. in frontmatter). The map is decoded onto domain.Config.
type ConfigurableLoader interface {
	GrammarOptions(id string) (map[string]any, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for recompiling on save.
type Watchable interface {
	// Watch returns a channel that receives the ID of every grammar that changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
