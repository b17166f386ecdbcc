package twolc

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/internal/runtime"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/ports"
)

// Exit statuses returned by Compile.
const (
	StatusOK       = 0
	StatusError    = 1 // the grammar, its source or the sink failed
	StatusInternal = 2 // the automaton library failed
)

// Compiler is the high-level entry point for the twolc library.
// It wraps the internal runtime and is safe for concurrent use.
type Compiler struct {
	runtime     *runtime.Engine
	store       ports.TransducerStore
	diagnostics io.Writer
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Compiler.
type Option func(*Compiler)

// WithLogger sets the structured logger used when no diagnostics writer is set.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithDiagnostics sends every compile's diagnostics to w, filtered by the
// Silent and Verbose options of the compile.
func WithDiagnostics(w io.Writer) Option {
	return func(c *Compiler) {
		c.diagnostics = w
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Compiler) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithStore sets the sink of store-mode compiles.
func WithStore(store ports.TransducerStore) Option {
	return func(c *Compiler) {
		c.store = store
	}
}

// New initializes a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	c.runtime = runtime.NewEngine(
		runtime.WithLogger(c.logger),
		runtime.WithLifecycleHooks(c.hooks),
	)
	return c
}

// Engine returns the text-based compile service used by the HTTP and MCP adapters.
func (c *Compiler) Engine() ports.GrammarCompiler {
	return c.runtime
}

// Store returns the configured sink, or nil.
func (c *Compiler) Store() ports.TransducerStore {
	return c.store
}

func (c *Compiler) request(ctx context.Context, src Source, cfg domain.Config, mode domain.Mode) (runtime.Request, func() error, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return runtime.Request{}, nil, err
	}
	cfg, err = sourceConfig(src, cfg)
	if err != nil {
		_ = r.Close()
		return runtime.Request{}, nil, err
	}
	return runtime.Request{
		Name:        src.Name(),
		Source:      r,
		Config:      cfg,
		Mode:        mode,
		Store:       c.store,
		Diagnostics: c.diagnostics,
	}, r.Close, nil
}

// CompileAndStore compiles src into one transducer named after the grammar
// and saves it in the configured store.
func (c *Compiler) CompileAndStore(ctx context.Context, src Source, cfg domain.Config) (*fst.Transducer, *domain.Report, error) {
	req, closeFn, err := c.request(ctx, src, cfg, domain.ModeStore)
	if err != nil {
		return nil, nil, err
	}
	defer closeFn()

	res, err := c.runtime.Compile(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return res.Transducer, res.Report, nil
}

// StorableRules compiles src into one transducer per rule, in source order.
func (c *Compiler) StorableRules(ctx context.Context, src Source, cfg domain.Config) ([]*fst.Transducer, *domain.Report, error) {
	req, closeFn, err := c.request(ctx, src, cfg, domain.ModeStorable)
	if err != nil {
		return nil, nil, err
	}
	defer closeFn()

	res, err := c.runtime.Compile(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return res.Rules, res.Report, nil
}

// Alphabet runs the preprocessor and the alphabet resolver on src.
func (c *Compiler) Alphabet(ctx context.Context, src Source) (domain.Alphabet, string, error) {
	req, closeFn, err := c.request(ctx, src, domain.Config{}, domain.ModeStore)
	if err != nil {
		return domain.Alphabet{}, "", err
	}
	defer closeFn()

	res, err := c.runtime.Resolve(ctx, req)
	if err != nil {
		return domain.Alphabet{}, "", err
	}
	return res.Alphabet, res.Input, nil
}

// Compile is the status-code surface: it compiles src into the configured
// store and returns StatusOK, StatusError or StatusInternal. The cause of a
// failure goes to the diagnostics writer, or to the logger without one.
func (c *Compiler) Compile(ctx context.Context, src Source, cfg domain.Config) int {
	req, closeFn, err := c.request(ctx, src, cfg, domain.ModeStore)
	if err != nil {
		c.diagLogger(cfg).Error("cannot read grammar", "grammar", src.Name(), "err", err)
		return StatusError
	}
	defer closeFn()

	_, err = c.runtime.Compile(ctx, req)
	return Status(err)
}

func (c *Compiler) diagLogger(cfg domain.Config) *slog.Logger {
	switch {
	case c.diagnostics != nil:
		return logging.NewDiagnostics(c.diagnostics, cfg.Silent, cfg.Verbose)
	case c.logger != nil:
		return c.logger
	}
	return logging.NewNop()
}

// Status maps a compile error to an exit status.
func Status(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, domain.ErrInternal):
		return StatusInternal
	default:
		return StatusError
	}
}

// CompileFileAndGetStorableRules compiles the grammar file at path and
// returns its rule transducers. Errors are returned whatever cfg.Silent says.
func (c *Compiler) CompileFileAndGetStorableRules(ctx context.Context, path string, cfg domain.Config) ([]*fst.Transducer, error) {
	rules, _, err := c.StorableRules(ctx, FileSource(path), cfg)
	return rules, err
}

// CompileScriptAndGetStorableRules compiles grammar text held in memory.
func (c *Compiler) CompileScriptAndGetStorableRules(ctx context.Context, name, script string, cfg domain.Config) ([]*fst.Transducer, error) {
	rules, _, err := c.StorableRules(ctx, ScriptSource(name, script), cfg)
	return rules, err
}
