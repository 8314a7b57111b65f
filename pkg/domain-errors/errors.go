// Package domainerrors provides coded domain errors. Services and aggregates
// raise them with stable codes so callers and the transport layer branch on
// the code, never on message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies an error category or a specific domain rule. Domain
// packages define their own codes (e.g. "Permit.BlockedDueToDebt") alongside
// the generic ones below.
type Code string

const (
	CodeNotFound           Code = "Error.NotFound"
	CodeValidation         Code = "Error.Validation"
	CodeInvariantViolation Code = "Error.InvariantViolation"
	CodeConflict           Code = "Error.Conflict"
	CodeBadRequest         Code = "Error.BadRequest"
	CodeInternal           Code = "Error.Internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two coded errors by code, so errors.Is works across instances.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// New builds a coded error with a formatted message.
func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and context message to an underlying error.
func Wrap(err error, code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if !errors.As(err, &coded) {
		return false
	}
	return coded.Code == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}
