// Package errors provides structured error types for exorcism.
//
// Every error that crosses a package boundary towards the CLI or the HTTP
// service carries a machine-readable [Code], so callers can tell a bad input
// file from a cover that is too large for the configured limits without
// matching on message text.
//
// # Error Codes
//
//   - INVALID_*: the caller supplied something unusable (cover text, options)
//   - TOO_MANY_CUBES, OUT_OF_MEMORY: the minimizer refused or failed to set up a run
//   - NOT_EQUIVALENT: a verification found a differing assignment
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTooManyCubes, "cover has %d cubes, limit is %d", n, max)
//	if errors.Is(err, errors.ErrCodeTooManyCubes) {
//	    // ask for a larger --max-cubes
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidInput, parseErr, "reading %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Minimizer setup errors
	ErrCodeTooManyCubes Code = "TOO_MANY_CUBES"
	ErrCodeOutOfMemory  Code = "OUT_OF_MEMORY"

	// Verification errors
	ErrCodeNotEquivalent Code = "NOT_EQUIVALENT"

	ErrCodeNotFound    Code = "NOT_FOUND"
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

// UserMessage returns the message of the outermost *Error without the code
// prefix, or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
