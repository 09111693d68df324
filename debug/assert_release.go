//go:build !debug

// Package debug provides assertions that can be enabled with the debug build
// tag or will otherwise compile to no-ops.
//
// The bus responder loop must never panic in the field, so invariants on the
// hot paths are checked here instead of with explicit error returns.
package debug

// Guard more complex assertions (i.e. anything that could panic) with `if
// debug.Enabled{...}`, otherwise they can't be removed in release builds.
const Enabled = false

// Assert panics if b is false.
func Assert(b bool, message string) {}

// AssertErrNil panics if err is not nil.
func AssertErrNil(err error) {}

// Unreachable panics when reached.  Use it in switch defaults that the
// surrounding code rules out.
func Unreachable(where string) {}
