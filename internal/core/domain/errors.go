// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when a product does not exist in the caller's business
	ErrProductNotFound = errors.New("product not found")
	ErrCountNotFound   = errors.New("inventory count not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict detected")
	ErrEmptyBatch      = errors.New("batch contains no counts")
	ErrBatchTooLarge   = fmt.Errorf("batch exceeds %d counts", MaxBatchSize)
)

// ValidationError describes a single invalid field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError carries the expected and actual quantities of a rejected count
type ConflictError struct {
	Data ConflictData
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict detected for %s: expected %d, actual %d",
		e.Data.ProductName, e.Data.Expected, e.Data.Actual)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
