package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrConfiguration indicates malformed, missing or inconsistent input.
	ErrConfiguration = errors.New("coastal: configuration error")

	// ErrShape indicates a field whose shape does not match the grid.
	ErrShape = errors.New("coastal: shape mismatch between field and grid")

	// ErrStability indicates a time step above the CFL bound.
	ErrStability = errors.New("coastal: time step violates stability bound")

	// ErrDivergence indicates non-finite values in the solution.
	ErrDivergence = errors.New("coastal: solution diverged (NaN or Inf detected)")
)

// ConfigurationError names the offending key of a rejected configuration.
type ConfigurationError struct {
	Key    string
	Reason string
}

// Configf builds a ConfigurationError for key.
func Configf(key, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ShapeError reports a field whose dimensions disagree with the grid.
type ShapeError struct {
	Name string
	Want [2]int
	Got  [2]int
}

func (e *ShapeError) Error() string {
	name := e.Name
	if name == "" {
		name = "field"
	}
	return fmt.Sprintf("shape: %s is %dx%d, grid is %dx%d", name, e.Got[0], e.Got[1], e.Want[0], e.Want[1])
}

func (e *ShapeError) Unwrap() error { return ErrShape }

// StabilityError reports a requested step above the explicit-scheme bound.
type StabilityError struct {
	Dt    float64
	Bound float64
	Speed float64
}

func (e *StabilityError) Error() string {
	return fmt.Sprintf("stability: dt=%g exceeds bound %g (speed %g)", e.Dt, e.Bound, e.Speed)
}

func (e *StabilityError) Unwrap() error { return ErrStability }

// DivergenceError wraps the step at which non-finite values appeared.
type DivergenceError struct {
	Step  int
	Time  float64
	Field string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): field %q is not finite", e.Step, e.Time, e.Field)
}

func (e *DivergenceError) Unwrap() error { return ErrDivergence }
