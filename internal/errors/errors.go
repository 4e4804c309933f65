// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrSessionExpired   = errors.New("session expired")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDataNotFound     = errors.New("data not found")
	ErrDatabaseError    = errors.New("database error")
	ErrPipelineAborted  = errors.New("pipeline aborted")
	ErrStaleInvocation  = errors.New("superseded by a newer invocation")
)

// GenericServiceMessage is the user-facing fallback when a service failure
// carries no description of its own.
const GenericServiceMessage = "could not reach the server"

// ValidationError reports structurally invalid input, such as a trade
// import missing a required column.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// MissingField creates the ValidationError raised when a required import
// column is absent.
func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// FormatError reports input that cannot be interpreted at all, such as a
// trade import with no data rows.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s", e.Message)
}

// NewFormatError creates a new FormatError.
func NewFormatError(message string) *FormatError {
	return &FormatError{Message: message}
}

// ServiceError represents a failed call to an external service.
type ServiceError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service error [%s]: %s: %v", e.Service, e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("service error [%s]: %s (status %d)", e.Service, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("service error [%s]: %s", e.Service, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// UserMessage returns a human-readable description suitable for surfacing
// in a notification, falling back to a generic message when the error
// carries none.
func (e *ServiceError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return GenericServiceMessage
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, message string, err error) *ServiceError {
	return &ServiceError{Service: service, Message: message, Err: err}
}

// EngineError represents a failure inside an AI engine operation.
type EngineError struct {
	Operation string
	Err       error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error [%s]: %v", e.Operation, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(operation string, err error) *EngineError {
	return &EngineError{Operation: operation, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// UserMessage extracts a human-readable message from any pipeline error,
// preferring a ServiceError's own description.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.UserMessage()
	}
	if errors.Is(err, ErrUnauthorized) {
		return "session expired, please sign in again"
	}
	return GenericServiceMessage
}
