package solver

import (
	"errors"
	"fmt"
)

// ErrUnsatisfied is generated when two independently supplied or derived
// values for the same field disagree beyond tolerance. Every
// [UnsatisfiedError] wraps it, so callers can match with [errors.Is].
var ErrUnsatisfied = errors.New("dataset is not satisfiable")

// UnsatisfiedError reports the contradiction that aborted a solve: the
// field, the value it already held and the conflicting candidate.
type UnsatisfiedError struct {
	Field string
	Have  float64 // value the field already held
	Got   float64 // conflicting candidate
}

func (e *UnsatisfiedError) Error() string {
	return fmt.Sprintf("%v: field %q has value %v, got %v", ErrUnsatisfied, e.Field, e.Have, e.Got)
}

func (e *UnsatisfiedError) Unwrap() error { return ErrUnsatisfied }
