// Package assert provides panic-based invariant checks for conditions that
// indicate a programming error rather than bad input data. Callers that hit
// an assertion failure are never expected to recover from it.
package assert

import "fmt"

// Assert panics with a formatted message if condition is false.
func Assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("invariant violation: "+format, args...))
	}
}

// Assertf is an alias for Assert kept for call sites that read better with
// an explicit "f" suffix next to a format string.
func Assertf(condition bool, format string, args ...interface{}) {
	Assert(condition, format, args...)
}

// NotNil panics if value is nil.
func NotNil(value interface{}, name string) {
	if value == nil {
		panic(fmt.Sprintf("invariant violation: %s must not be nil", name))
	}
}
