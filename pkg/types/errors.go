package types

import "errors"

var (
	// ErrValidation is returned when an input is malformed, such as a
	// non-finite energy or a non-positive period. Nothing is mutated when it
	// is returned.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState is returned for unrecoverable configuration problems
	// like an unknown plant type or a missing day template.
	ErrInvalidState = errors.New("invalid state")
)
