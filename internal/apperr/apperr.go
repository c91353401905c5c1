// Package apperr provides the coded errors shared by the stores, the auth
// layer and the HTTP handlers.
package apperr

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	CodeInternal          Code = "INTERNAL"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeDuplicateIdentity Code = "DUPLICATE_IDENTITY"
	CodeInvalidOperation  Code = "INVALID_OPERATION"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeNotFound          Code = "NOT_FOUND"
)

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Safe to show to clients
	Cause   error  // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Validation is shorthand for a CodeValidation error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = New(CodeValidation, "validation failed")
	ErrDuplicateIdentity = New(CodeDuplicateIdentity, "email already registered")
	ErrInvalidOperation  = New(CodeInvalidOperation, "invalid operation")
	ErrUnauthenticated   = New(CodeUnauthenticated, "could not validate credentials")
	ErrNotFound          = New(CodeNotFound, "not found")
)

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the client-safe message of err. Errors without a code
// never leak their text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
