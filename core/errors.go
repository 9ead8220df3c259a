package core

import (
	"errors"
	"fmt"
)

// ErrPreconditionViolation marks a broken invariant discovered at
// conversion time, such as a non-positive radius. It is the only error
// that crosses the command-translation boundary.
var ErrPreconditionViolation = errors.New("precondition violation")

// ValidationError describes a malformed or missing numeric field.
// It is recovered locally and surfaced as a no-op reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// OutOfRangeError records a value that was clamped into its bounds.
type OutOfRangeError struct {
	Field   string
	Value   float64
	Min     float64
	Max     float64
	Applied float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %g outside [%g, %g], clamped to %g", e.Field, e.Value, e.Min, e.Max, e.Applied)
}
