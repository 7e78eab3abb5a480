// Package apperrors defines the error taxonomy shared by the store, the
// services and the HTTP boundary.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when presented credentials do not match.
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFound wraps ErrNotFound with the entity kind and key.
func NotFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// ValidationError reports malformed, missing or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a duplicate key or a concurrent modification
// detected by the store.
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ConflictError) Unwrap() error { return e.Err }

// NewConflictError creates a conflict error.
func NewConflictError(message string, err error) *ConflictError {
	return &ConflictError{Message: message, Err: err}
}

// UnprocessableError reports well-formed input the operation cannot act on.
type UnprocessableError struct {
	Message string
}

func (e *UnprocessableError) Error() string { return e.Message }

// InternalError wraps an unexpected store or dependency failure.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error { return e.Err }

// Internal wraps err as an InternalError unless it already belongs to the
// taxonomy, in which case it is returned unchanged.
func Internal(op string, err error) error {
	if err == nil || IsKnown(err) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsUnprocessable(err error) bool {
	var u *UnprocessableError
	return errors.As(err, &u)
}

// IsKnown reports whether err is one of the classified errors above.
func IsKnown(err error) bool {
	var ie *InternalError
	return IsNotFound(err) || IsUnauthorized(err) || IsValidation(err) ||
		IsConflict(err) || IsUnprocessable(err) || errors.As(err, &ie)
}
