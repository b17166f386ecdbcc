package twolc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/twolc/internal/config"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/ports"
)

// Source supplies the text of one grammar.
type Source interface {
	// Name identifies the grammar in diagnostics; store-mode output is saved under it.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// OptionSource is a Source whose grammar carries its own compile options.
// They are applied over the options given to the compile.
type OptionSource interface {
	Source
	Options() (map[string]any, error)
}

type fileSource struct{ path string }

// FileSource reads a grammar file. The grammar is named after the file
// without its extension.
func FileSource(path string) Source { return fileSource{path: path} }

func (s fileSource) Name() string {
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s fileSource) Open(context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grammar: %w", err)
	}
	return f, nil
}

type scriptSource struct{ name, text string }

// ScriptSource is grammar text held in memory.
func ScriptSource(name, text string) Source { return scriptSource{name: name, text: text} }

func (s scriptSource) Name() string { return s.name }

func (s scriptSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.text)), nil
}

type loaderSource struct {
	loader ports.GrammarLoader
	id     string
}

// LoaderSource reads grammar id from a repository. Loaders implementing
// ports.ConfigurableLoader contribute per-grammar options.
func LoaderSource(loader ports.GrammarLoader, id string) Source {
	return loaderSource{loader: loader, id: id}
}

func (s loaderSource) Name() string { return s.id }

func (s loaderSource) Open(context.Context) (io.ReadCloser, error) {
	data, err := s.loader.GetGrammar(s.id)
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar %s: %w", s.id, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s loaderSource) Options() (map[string]any, error) {
	if cl, ok := s.loader.(ports.ConfigurableLoader); ok {
		return cl.GrammarOptions(s.id)
	}
	return nil, nil
}

func sourceConfig(src Source, cfg domain.Config) (domain.Config, error) {
	osrc, ok := src.(OptionSource)
	if !ok {
		return cfg, nil
	}
	opts, err := osrc.Options()
	if err != nil {
		return cfg, err
	}
	cfg, err = config.Decode(opts, cfg)
	if err != nil {
		return cfg, fmt.Errorf("grammar %s: %w", src.Name(), err)
	}
	return cfg, nil
}
