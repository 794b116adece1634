package model

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNotFound is returned when an operation targets a nonexistent entity
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint would be violated
	ErrConflict = errors.New("conflict")
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// NewFieldError creates a FieldError
func NewFieldError(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf wraps ErrNotFound with a description of the missing entity
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Conflictf wraps ErrConflict with a description of the duplicate
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// IsValidation reports whether err carries at least one FieldError
func IsValidation(err error) bool {
	return len(FieldErrors(err)) > 0
}

// FieldErrors flattens err into its field-level validation failures. A
// multierror is walked element by element.
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}

	var merr *multierror.Error
	if errors.As(err, &merr) {
		var out []*FieldError
		for _, e := range merr.Errors {
			out = append(out, FieldErrors(e)...)
		}
		return out
	}

	var ferr *FieldError
	if errors.As(err, &ferr) {
		return []*FieldError{ferr}
	}
	return nil
}
