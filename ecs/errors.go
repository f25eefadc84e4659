package ecs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failure the way callers are expected to branch on,
// independent of the wrapped message or stack.
type ErrorKind int

const (
	// ErrLimitExceeded signals id-space exhaustion. Fatal, surfaced to the caller.
	ErrLimitExceeded ErrorKind = iota
	// ErrNotFound signals a reference to an id that was never created, or
	// was destroyed without being recycled to the caller's knowledge.
	ErrNotFound
	// ErrInvalidState signals a malformed id or corrupt decode.
	ErrInvalidState
	// ErrInvalidArgument signals a malformed call, e.g. a zero-term query.
	ErrInvalidArgument
	// ErrDuplicate signals a name collision or similar uniqueness violation.
	ErrDuplicate
)

func (k ErrorKind) String() string {
	switch k {
	case ErrLimitExceeded:
		return "limit_exceeded"
	case ErrNotFound:
		return "not_found"
	case ErrInvalidState:
		return "invalid_state"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every fallible operation in
// this package. It carries a Kind for programmatic branching and an
// operation label for diagnostics.
type Error struct {
	Kind ErrorKind
	Op   string
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ecs: %s: %s: %v", e.Op, e.Kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

func newError(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, err: errors.Errorf(format, args...)}
}

func limitExceeded(op, format string, args ...any) *Error {
	return newError(ErrLimitExceeded, op, format, args...)
}

func notFound(op, format string, args ...any) *Error {
	return newError(ErrNotFound, op, format, args...)
}

func invalidState(op, format string, args ...any) *Error {
	return newError(ErrInvalidState, op, format, args...)
}

func invalidArgument(op, format string, args ...any) *Error {
	return newError(ErrInvalidArgument, op, format, args...)
}

func duplicate(op, format string, args ...any) *Error {
	return newError(ErrDuplicate, op, format, args...)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
