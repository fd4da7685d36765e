// Package apperror defines the error kinds shared by every layer.
//
// Services return these kinds; only the HTTP layer (handler/response.go)
// translates them into status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
)

type AppError struct {
	Err     error  // kind sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error (upstream/auth failures)
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind sentinel and the underlying cause so that
// errors.Is works for either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthorized reports a failed identity exchange (OAuth code, state or
// userinfo). The message is safe to show to the browser.
func Unauthorized(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
		Cause:   cause,
	}
}

// Upstream wraps a failure of an external dependency (LLM provider, PDF
// engine). The raw error text becomes the message: clients of this API
// are shown what the provider said.
func Upstream(source string, cause error) *AppError {
	msg := source + " failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: msg,
		Field:   source,
		Cause:   cause,
	}
}
