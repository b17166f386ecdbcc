package ports

import (
	"context"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

// GrammarCompiler is the compile service used by adapters (e.g., HTTP, MCP)
// that receive grammar text per request.
type GrammarCompiler interface {
	// CompileText compiles a grammar into one composed transducer named after it.
	CompileText(ctx context.Context, name, text string, cfg domain.Config) (*fst.Transducer, *domain.Report, error)

	// RulesText compiles a grammar into one transducer per rule, in source order.
	RulesText(ctx context.Context, name, text string, cfg domain.Config) ([]*fst.Transducer, *domain.Report, error)

	// AlphabetText runs the first two stages only and returns the resolved alphabet.
	AlphabetText(ctx context.Context, name, text string) (domain.Alphabet, error)
}
