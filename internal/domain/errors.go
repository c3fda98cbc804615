// Package domain provides the entity types, status machines, and canonical
// error taxonomy for the contribution backend.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType categorizes a failure so the HTTP layer can map it to a status
// code and clients can branch on it.
type ErrorType string

const (
	// ErrorTypeNotFound indicates a referenced entity is absent.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeInvalidTransition indicates a status edge not permitted by
	// the contribution lifecycle table.
	ErrorTypeInvalidTransition ErrorType = "invalid_transition"

	// ErrorTypeValidation indicates malformed or contradictory input, such
	// as a party negotiating with itself.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeUnauthorized indicates no actor identity could be resolved.
	ErrorTypeUnauthorized ErrorType = "unauthorized"

	// ErrorTypeSessionClosed indicates an action attempted on a terminal
	// negotiation session.
	ErrorTypeSessionClosed ErrorType = "session_closed"

	// ErrorTypeConflict indicates the entity moved underneath a conditional
	// update and the caller must re-read before retrying.
	ErrorTypeConflict ErrorType = "conflict"

	// ErrorTypePersistence indicates a backend read/write failure.
	ErrorTypePersistence ErrorType = "persistence"
)

// Error is the canonical error carried across the service boundary. Detected
// validation failures never reach the backend; persistence failures wrap the
// underlying cause for %w unwrapping.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatusCode maps the error type to an HTTP response status.
func (e *Error) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeInvalidTransition, ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeSessionClosed, ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypePersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound creates a not-found error for the named entity.
func ErrNotFound(entity, id string) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// ErrInvalidTransition creates an invalid-transition error carrying both
// sides of the rejected edge.
func ErrInvalidTransition(current, next Status) *Error {
	return &Error{
		Type:    ErrorTypeInvalidTransition,
		Message: fmt.Sprintf("cannot transition contribution from %q to %q", current, next),
	}
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message}
}

// ErrUnauthorized creates an unauthorized error.
func ErrUnauthorized(message string) *Error {
	return &Error{Type: ErrorTypeUnauthorized, Message: message}
}

// ErrSessionClosed creates a session-closed error.
func ErrSessionClosed(sessionID string, status SessionStatus) *Error {
	return &Error{
		Type:    ErrorTypeSessionClosed,
		Message: fmt.Sprintf("session %s is %s and accepts no further actions", sessionID, status),
	}
}

// ErrConflict creates a conflict error for a lost conditional update.
func ErrConflict(message string) *Error {
	return &Error{Type: ErrorTypeConflict, Message: message}
}

// ErrPersistence wraps a backend failure with context.
func ErrPersistence(message string, cause error) *Error {
	return &Error{Type: ErrorTypePersistence, Message: message, Cause: cause}
}

// AsError extracts a *Error from err, or wraps err as a persistence error so
// every failure crossing the API boundary has a type and an HTTP mapping.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return ErrPersistence("internal error", err)
}

// TypeOf returns the error type of err, or ErrorTypePersistence for
// untyped errors.
func TypeOf(err error) ErrorType {
	return AsError(err).Type
}
