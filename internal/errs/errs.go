// Package errs defines the user-visible error taxonomy for the query
// bridge. Invariant violations are never represented here; those are
// assert.Assert panics (see internal/assert) per the bridge's fatal-error
// policy.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies a user-visible error.
type Code int

const (
	// Constraint marks a BestIndex-time planning failure: a TableFunction
	// was queried without the required constraints on its hidden columns.
	Constraint Code = iota
	// Execution marks a Filter-time failure evaluating a translated
	// constraint (e.g. an invalid Regex pattern).
	Execution
	// Upstream marks a failure surfaced by an upstream collaborator, most
	// often TableFunction.ComputeTable.
	Upstream
)

func (c Code) String() string {
	switch c {
	case Constraint:
		return "CONSTRAINT"
	case Execution:
		return "EXECUTION"
	case Upstream:
		return "UPSTREAM"
	default:
		return "UNKNOWN"
	}
}

// Error is a structured, user-visible error carrying a Code, a message and
// an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates an *Error with no wrapped cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an *Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error of the given code that wraps cause.
func Wrap(code Code, cause error, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// CodeOf returns the Code carried by err, or -1 if err is nil or not an
// *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return -1
}
