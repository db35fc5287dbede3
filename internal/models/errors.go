package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by stores, engines and the boundary layer.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested entity id does not exist in the record store.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates input was rejected before any store write.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError describes which field failed validation and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
