// Package runtime orchestrates the compilation pipeline: it builds fresh
// stage instances for every compile, drives the compile state machine and
// emits lifecycle events.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/ports"
)

// Engine is the pipeline runner. It holds no parser state, so one Engine
// serves any number of concurrent compiles.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used when a compile has no diagnostics writer.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request describes one compile.
type Request struct {
	Name   string
	Source io.Reader
	Config domain.Config
	Mode   domain.Mode

	// Store receives the composed transducer in ModeStore. It may be nil,
	// in which case the transducer is only returned.
	Store ports.TransducerStore

	// Diagnostics receives the compile's log lines. When nil the engine
	// logger is used.
	Diagnostics io.Writer
}

// Result is the outcome of a successful compile.
type Result struct {
	Report     *domain.Report
	Transducer *fst.Transducer   // ModeStore
	Rules      []*fst.Transducer // ModeStorable
}

// Compile runs the three stages on req.Source. On failure no transducer is
// returned and nothing is stored.
func (e *Engine) Compile(ctx context.Context, req Request) (*Result, error) {
	cfg, err := req.Config.Normalize()
	if err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = domain.ModeStore
	}
	if req.Mode != domain.ModeStore && req.Mode != domain.ModeStorable {
		return nil, fmt.Errorf("unknown compile mode %q", req.Mode)
	}
	req.Config = cfg
	c := e.newCompilation(req)
	res, err := c.run(ctx)
	if err != nil {
		c.fail(err)
		return nil, err
	}
	c.log.Info("compile finished", "grammar", req.Name, "state", string(c.state), "rules", len(c.report.Rules))
	return res, nil
}

// Resolved is the output of the first two stages.
type Resolved struct {
	Alphabet domain.Alphabet
	// Input is the serialized alphabet header and rules read by the compiler stage.
	Input string
	Rules int
}

// Resolve runs the preprocessor and the alphabet resolver only.
func (e *Engine) Resolve(ctx context.Context, req Request) (*Resolved, error) {
	cfg, err := req.Config.Normalize()
	if err != nil {
		return nil, err
	}
	req.Config = cfg
	c := e.newCompilation(req)
	res, err := c.resolve(ctx)
	if err != nil {
		c.fail(err)
		return nil, err
	}
	return res, nil
}

// CompileText compiles grammar text into one composed transducer.
func (e *Engine) CompileText(ctx context.Context, name, text string, cfg domain.Config) (*fst.Transducer, *domain.Report, error) {
	res, err := e.Compile(ctx, Request{Name: name, Source: strings.NewReader(text), Config: cfg, Mode: domain.ModeStore})
	if err != nil {
		return nil, nil, err
	}
	return res.Transducer, res.Report, nil
}

// RulesText compiles grammar text into one transducer per rule.
func (e *Engine) RulesText(ctx context.Context, name, text string, cfg domain.Config) ([]*fst.Transducer, *domain.Report, error) {
	res, err := e.Compile(ctx, Request{Name: name, Source: strings.NewReader(text), Config: cfg, Mode: domain.ModeStorable})
	if err != nil {
		return nil, nil, err
	}
	return res.Rules, res.Report, nil
}

// AlphabetText resolves the alphabet of grammar text.
func (e *Engine) AlphabetText(ctx context.Context, name, text string) (domain.Alphabet, error) {
	res, err := e.Resolve(ctx, Request{Name: name, Source: strings.NewReader(text)})
	if err != nil {
		return domain.Alphabet{}, err
	}
	return res.Alphabet, nil
}

var _ ports.GrammarCompiler = (*Engine)(nil)
