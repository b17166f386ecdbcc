package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax is wrapped by every malformed-grammar error.
	ErrSyntax = errors.New("syntax error")
	// ErrUnknownSymbol is returned when a rule references a symbol absent from the alphabet.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrUnresolvedConflict is returned when two rules conflict and resolution is disabled.
	ErrUnresolvedConflict = errors.New("unresolved rule conflict")
	// ErrInternal marks a fault in the automaton algebra. It is a bug, not a grammar error.
	ErrInternal = errors.New("internal automaton error")
	// ErrTransducerNotFound is returned when a transducer name cannot be found in the store.
	ErrTransducerNotFound = errors.New("transducer not found")
	// ErrGrammarNotFound is returned when a grammar id cannot be found by a loader.
	ErrGrammarNotFound = errors.New("grammar not found")
)

// GrammarError is a user-facing grammar failure with stage identity and location.
type GrammarError struct {
	Stage Stage
	Rule  string // Offending rule name, if known
	Pos   Position
	Msg   string
	Err   error // ErrSyntax or ErrUnknownSymbol
}

func (e *GrammarError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Stage))
	if !e.Pos.IsZero() || e.Pos.Source != "" {
		sb.WriteString(": " + e.Pos.String())
	}
	if e.Rule != "" {
		fmt.Fprintf(&sb, ": rule %q", e.Rule)
	}
	sb.WriteString(": " + e.Msg)
	return sb.String()
}

func (e *GrammarError) Unwrap() error {
	if e.Err == nil {
		return ErrSyntax
	}
	return e.Err
}

// ConflictError reports a conflict between two rules that was not resolved.
type ConflictError struct {
	Conflict Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnresolvedConflict, e.Conflict)
}

func (e *ConflictError) Unwrap() error { return ErrUnresolvedConflict }

// InternalError carries a recovered automaton fault verbatim.
type InternalError struct {
	Stage Stage
	Cause any
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, ErrInternal, e.Cause)
}

func (e *InternalError) Unwrap() []error {
	if err, ok := e.Cause.(error); ok {
		return []error{ErrInternal, err}
	}
	return []error{ErrInternal}
}

// IsGrammarError reports whether err is caused by the grammar text rather than the compiler.
func IsGrammarError(err error) bool {
	var ge *GrammarError
	var ce *ConflictError
	return errors.As(err, &ge) || errors.As(err, &ce)
}
