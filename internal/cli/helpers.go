// Package cli holds the wiring shared by the twolc commands: store and
// compiler construction from configuration, signal handling and watch mode.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/muesli/termenv"

	"github.com/aretw0/twolc/internal/logging"
	"github.com/aretw0/twolc/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// CreateLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout transducer output).
func CreateLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// PrintSystemMessage prints a standardized system message.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	p := termenv.NewOutput(w).Profile
	prefix := termenv.String(">>>").Foreground(p.Color("#a78bfa"))
	fmt.Fprintf(w, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// DebugHooks logs every lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Stage start", "grammar", e.Grammar, "stage", e.Stage)
		},
		OnStageEnd: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				logger.Debug("Stage failed", "grammar", e.Grammar, "stage", e.Stage, "err", e.Err)
				return
			}
			logger.Debug("Stage end", "grammar", e.Grammar, "stage", e.Stage, "duration", e.Duration)
		},
		OnRuleCompiled: func(ctx context.Context, e *domain.RuleEvent) {
			logger.Debug("Rule compiled", "grammar", e.Grammar, "rule", e.Rule, "states", e.States)
		},
		OnConflict: func(ctx context.Context, e *domain.ConflictEvent) {
			logger.Debug("Conflict", "grammar", e.Grammar, "conflict", e.Conflict.String(), "resolved", e.Conflict.Resolved)
		},
	}
}
