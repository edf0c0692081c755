package averages

import "errors"

var (
	// ErrShapeMismatch is returned when counts and weights differ in length.
	ErrShapeMismatch = errors.New("counts and weights differ in length")

	// ErrEmpty is returned for a population with no species.
	ErrEmpty = errors.New("population is empty")

	// ErrDivisionByZero is returned, together with a NaN value, when a total
	// count or total mass in a denominator is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInvalidAlpha is returned by Mv for a non-positive exponent.
	ErrInvalidAlpha = errors.New("viscosity exponent must be positive")

	// ErrUnknownAverage is returned by registry lookups of an unregistered name.
	ErrUnknownAverage = errors.New("unknown average")
)
