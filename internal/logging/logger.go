package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/twolc/pkg/domain"
)

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout transducer output).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return newText(os.Stderr, level)
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewDiagnostics returns the logger for a compile's diagnostics sink.
// Silent keeps warnings and errors only; verbose adds per-rule detail.
// A nil writer discards everything.
func NewDiagnostics(w io.Writer, silent, verbose bool) *slog.Logger {
	if w == nil {
		return NewNop()
	}
	level := slog.LevelInfo
	switch {
	case silent:
		level = slog.LevelWarn
	case verbose:
		level = slog.LevelDebug
	}
	return newText(w, level)
}

// ForStage derives the logger handed to one pipeline stage.
func ForStage(l *slog.Logger, stage domain.Stage) *slog.Logger {
	return l.With("stage", string(stage))
}

func newText(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			// Diagnostics are compared across runs; drop wall-clock time.
			if a.Key == slog.TimeKey && len(groups) == 0 && w != os.Stderr {
				return slog.Attr{}
			}
			return a
		},
	}))
}
