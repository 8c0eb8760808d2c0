package sqlt

import (
	"errors"
	"fmt"
)

/*
Core of all errors returned by this package. Wrapped by `ErrBuild`, `ErrExpr`,
`ErrInternal` which represent the error classes. Use `errors.Is` or
`errors.As` with the wrapper types to detect them:

	if errors.Is(err, sqlt.ErrBuild{}) {
		// Template could not be compiled.
	}

Errors can't be compared via `==` because they include details about the
circumstances.
*/
type Err struct {
	While string
	Cause error
}

// Implement `error`.
func (self Err) Error() string {
	if self == (Err{}) {
		return ``
	}
	msg := `[sqlt] error`
	if self.While != `` {
		msg += fmt.Sprintf(` while %v`, self.While)
	}
	if self.Cause != nil {
		msg += `: ` + self.Cause.Error()
	}
	return msg
}

// Implement a hidden interface in "errors".
func (self Err) Is(other error) bool {
	if self.Cause != nil && errors.Is(self.Cause, other) {
		return true
	}
	err, ok := other.(Err)
	return ok && err == (Err{})
}

// Implement a hidden interface in "errors".
func (self Err) Unwrap() error { return self.Cause }

/*
Compile-time error class. Raised when a statement definition can't be
compiled: unknown tag names, malformed expressions, too many default branches
in a choice, malformed placeholder hints, unresolvable type aliases or type
handlers. Fatal: a statement that fails to compile must never be registered
for execution.
*/
type ErrBuild struct{ Err }

// Implement a hidden interface in "errors".
func (self ErrBuild) Is(other error) bool {
	_, ok := other.(ErrBuild)
	return ok || self.Err.Is(other)
}

/*
Evaluation-time error class. Raised per invocation when an expression can't be
resolved against the current bindings and argument, or when a "foreach"
collection expression evaluates to a non-iterable value. Does not affect the
compiled template, which remains valid for differently-shaped arguments.
*/
type ErrExpr struct{ Err }

// Implement a hidden interface in "errors".
func (self ErrExpr) Is(other error) bool {
	_, ok := other.(ErrExpr)
	return ok || self.Err.Is(other)
}

// Internal-invariant error class. Should never be observed by external code.
type ErrInternal struct{ Err }

// Implement a hidden interface in "errors".
func (self ErrInternal) Is(other error) bool {
	_, ok := other.(ErrInternal)
	return ok || self.Err.Is(other)
}

func errBuild(while string, cause error) ErrBuild { return ErrBuild{Err{while, cause}} }
func errExpr(while string, cause error) ErrExpr   { return ErrExpr{Err{while, cause}} }

func errf(pat string, vals ...any) error { return fmt.Errorf(pat, vals...) }
