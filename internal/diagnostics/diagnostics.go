// Package diagnostics defines the failure kinds of the node runtime.
//
// Every kind is an invariant violation on the part of an upstream compiler or
// registration step, never a recoverable condition of user input. An
// evaluation that hits one stops at once; the caller decides how to report it.
package diagnostics

import (
	"errors"
	"fmt"
)

// Failure kinds. Use errors.Is against these.
var (
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrOutOfRange         = errors.New("out of range")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrUnresolvedBody     = errors.New("unresolved body")
	ErrDuplicateParameter = errors.New("duplicate parameter")
	ErrUnsetOutput        = errors.New("unset output")
)

// Error is a single runtime failure.
type Error struct {
	// Kind is one of the Err* sentinels above
	Kind error

	// Op names the operation that failed (e.g. "tuple.get", "eval.call")
	Op string

	// Detail is a human-readable description
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New creates an Error of the given kind.
func New(kind error, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Raise panics with an Error of the given kind. It is used by accessors that
// run inside call bodies, where threading an error return would hide the
// failure inside user code. The evaluator boundary converts it back with Recover.
func Raise(kind error, op string, format string, args ...any) {
	panic(New(kind, op, format, args...))
}

// Recover converts a panic raised with Raise into *errp. Any other panic
// value is re-panicked. Call it deferred:
//
//	defer diagnostics.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}
	panic(r)
}

// KindOf returns the sentinel kind of err, or nil if err is not a runtime failure.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
