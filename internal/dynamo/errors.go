package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrNotFound indicates a universe or run file does not exist.
	ErrNotFound = errors.New("dynamo: file not found")

	// ErrFormat indicates a malformed row in a universe or trajectory file.
	ErrFormat = errors.New("dynamo: malformed record")

	// ErrInvalidData indicates physically meaningless input (non-positive mass, NaN).
	ErrInvalidData = errors.New("dynamo: invalid body data")

	// ErrInvalidTimestep indicates a timestep that is zero, negative or not finite.
	ErrInvalidTimestep = errors.New("dynamo: timestep must be positive")

	// ErrSingularity indicates two bodies at zero separation with no softening.
	ErrSingularity = errors.New("dynamo: zero separation between bodies")

	// ErrUnstable indicates the state diverged to NaN or Inf.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrDimensionMismatch indicates parallel body slices of different lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between body arrays")
)

type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrNotFound, e.Path)
}

func (e *NotFoundError) Unwrap() []error {
	return []error{ErrNotFound, e.Err}
}

// FormatError reports the offending line (1-based) and, when known, field (0-based).
type FormatError struct {
	Line  int
	Field int
	Text  string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Field >= 0 {
		return fmt.Sprintf("%v: line %d field %d %q: %v", ErrFormat, e.Line, e.Field, e.Text, e.Err)
	}
	return fmt.Sprintf("%v: line %d %q: %v", ErrFormat, e.Line, e.Text, e.Err)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

type InvalidDataError struct {
	Line   int
	Body   int
	Reason string
}

func (e *InvalidDataError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: line %d (body %d): %s", ErrInvalidData, e.Line, e.Body, e.Reason)
	}
	return fmt.Sprintf("%v: body %d: %s", ErrInvalidData, e.Body, e.Reason)
}

func (e *InvalidDataError) Unwrap() error { return ErrInvalidData }

type InvalidTimestepError struct {
	Dt float64
}

func (e *InvalidTimestepError) Error() string {
	return fmt.Sprintf("%v, got %g", ErrInvalidTimestep, e.Dt)
}

func (e *InvalidTimestepError) Unwrap() error { return ErrInvalidTimestep }

// SingularityError names the first coincident pair found.
type SingularityError struct {
	I, J int
}

func (e *SingularityError) Error() string {
	return fmt.Sprintf("%v: bodies %d and %d", ErrSingularity, e.I, e.J)
}

func (e *SingularityError) Unwrap() error { return ErrSingularity }

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4g s): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
