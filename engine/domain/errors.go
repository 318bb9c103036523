package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for input validation failures. These map to 4xx at
// the boundary and are never logged as system failures.
var (
	ErrEmptyQuery    = errors.New("query is empty")
	ErrQueryTooLong  = errors.New("query too long")
	ErrQueryTooShort = errors.New("query too short")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
