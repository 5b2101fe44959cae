// Package errs holds the error kinds shared by the domain services.
package errs

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrUnauthorized means no authenticated caller is attached to the request.
	ErrUnauthorized = eris.New("authenticated caller required")
	// ErrNotFound means the requested record does not exist for the caller.
	ErrNotFound = eris.New("resource not found")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

// ValidationError reports malformed caller input. It is never retried.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field.Field, field.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records an invalid field.
func (e *ValidationError) Add(field, message string, value any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message, Value: value})
}

// OrNil returns e when at least one field failed, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string, value any) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message, value)
	return v
}

// PersistenceError wraps a failure of the record store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError, passing nil through.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return eris.As(err, &target)
}

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return eris.As(err, &target)
}
