// Package errors provides structured error handling with HTTP status code mapping
// and the client-facing error envelope.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeInput indicates a missing or malformed query/body field (HTTP 400)
	TypeInput ErrorType = "input"
	// TypeAuth indicates a failed or unusable token exchange (HTTP 401)
	TypeAuth ErrorType = "auth"
	// TypeUpstream indicates a non-2xx or transport failure from the resource API (HTTP 500)
	TypeUpstream ErrorType = "upstream"
	// TypePersistence indicates storage unavailability or an unexpected constraint violation (HTTP 500)
	TypePersistence ErrorType = "persistence"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
// 400 is reserved for caller input errors, 401 for token failures, 500 for
// upstream or persistence failures.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeInput:
		return http.StatusBadRequest
	case TypeAuth:
		return http.StatusUnauthorized
	case TypeUpstream:
		return http.StatusInternalServerError
	case TypePersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// InputError creates a new caller input error (HTTP 400).
func InputError(message string) *Error {
	return &Error{
		Type:    TypeInput,
		Message: message,
		Context: make(map[string]any),
	}
}

// AuthError creates a new token exchange error (HTTP 401).
func AuthError(message string, cause error) *Error {
	return &Error{
		Type:    TypeAuth,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// UpstreamError creates a new resource API error (HTTP 500).
func UpstreamError(message string, cause error) *Error {
	return &Error{
		Type:    TypeUpstream,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// PersistenceError creates a new storage error (HTTP 500).
func PersistenceError(message string, cause error) *Error {
	return &Error{
		Type:    TypePersistence,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the envelope sent to clients on any failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
// Details carries the underlying cause; credentials never appear here because
// no caller puts them into error causes.
func (e *Error) ToResponse() ErrorResponse {
	details := ""
	if e.Cause != nil {
		details = e.Cause.Error()
	}
	return ErrorResponse{
		Error:   e.Message,
		Details: details,
	}
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an upstream error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return UpstreamError("internal server error", err)
}
