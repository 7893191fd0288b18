// Package errors provides structured error types for moonlayout.
//
// This package defines error codes and types that enable:
//   - Consistent handling of recoverable and fatal layout conditions
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for the CLI and inspector API
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (scene files, options)
//   - NOT_FOUND: Entity or resource not known to a component
//   - INVARIANT_VIOLATION: Logic errors in the synchronization layer
//   - NETWORK_*: Snapshot store connectivity
//   - INTERNAL_*: Unexpected internal errors
//
// A NOT_FOUND from the layout tree means "nothing to do for this entity this
// frame" and is handled locally. An INVARIANT_VIOLATION aborts the frame.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "no layout node for %s", entity)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Skip this entity
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvariant, cause, "set children of node %d", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidScene Code = "INVALID_SCENE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Synchronization layer bugs; never retried
	ErrCodeInvariant Code = "INVARIANT_VIOLATION"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err carries ErrCodeNotFound.
func IsNotFound(err error) bool { return Is(err, ErrCodeNotFound) }

// IsInvariant reports whether err carries ErrCodeInvariant.
func IsInvariant(err error) bool { return Is(err, ErrCodeInvariant) }
