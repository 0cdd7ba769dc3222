// Package errors provides error handling utilities.
package errors

import (
	"errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeUnknownService indicates a service id that is not in the catalog
	TypeUnknownService Type = "UNKNOWN_SERVICE"

	// TypeInvalidConnection indicates a connection the validator rejected
	TypeInvalidConnection Type = "INVALID_CONNECTION"

	// TypeMalformedData indicates catalog or level data that failed to load
	TypeMalformedData Type = "MALFORMED_DATA"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeStorage indicates a progress storage error
	TypeStorage Type = "STORAGE_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error, or any error it wraps, is of a specific type
func IsType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the type of a domain error, or TypeInternal for anything else
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// MessageOf returns the message of a domain error without its cause,
// or err.Error() for anything else
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// UnknownService creates an unknown service error
func UnknownService(id string) *Error {
	return Newf(TypeUnknownService, "unknown service: %s", id).WithContext("service_id", id)
}

// InvalidConnection creates an invalid connection error carrying the validator message
func InvalidConnection(message string) *Error {
	return New(TypeInvalidConnection, message)
}

// Malformed creates a malformed data error
func Malformed(source string, cause error) *Error {
	return Wrapf(TypeMalformedData, cause, "malformed data in %s", source)
}

// NotFound creates a not found error
func NotFound(kind, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", kind, identifier)
}

// Storage creates a storage error
func Storage(message string, cause error) *Error {
	return Wrap(TypeStorage, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
