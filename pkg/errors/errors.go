// Package errors provides structured error types for MegaMini rig operations.
//
// Every user-facing operation (create rig, create place, attach) validates its
// input up front and fails with one of the codes below before touching the
// scene. This gives callers:
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for the command layer
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes follow the naming convention of the failure they describe:
//   - INVALID_*: Input validation failures (non-positive scale, bad vectors)
//   - MISSING_*: A rig, frame or object that the operation needs is absent
//   - NO_OBJECTS_SELECTED: An attach operation was given an empty selection
//   - INTERNAL_*: Unexpected failures reported by the host scene
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidParameter, "scale must be greater than zero, got %g", scale)
//	if errors.Is(err, errors.ErrCodeInvalidParameter) {
//	    // Handle validation error
//	}
//
//	// Wrap host errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "create frame %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for rig operations.
const (
	// Input validation errors
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidRotation  Code = "INVALID_ROTATION_MODE"

	// Missing rig structure
	ErrCodeMissingRig            Code = "MISSING_RIG"
	ErrCodeMissingFrame          Code = "MISSING_FRAME"
	ErrCodeMissingObject         Code = "MISSING_OBJECT"
	ErrCodeMissingAltGroupTarget Code = "MISSING_ALT_GROUP_TARGET"

	// Selection errors
	ErrCodeNoObjectsSelected Code = "NO_OBJECTS_SELECTED"

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
// For *Error types, returns the message and its causes without code prefixes.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
