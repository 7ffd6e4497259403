// Package dErrors provides coded domain errors. Services return these so
// transport layers can map outcomes to HTTP statuses without string matching,
// and callers can branch on Code with HasCode.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Every expected, recoverable outcome in the
// business API has a code here; anything else is CodeInternal.
type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"

	// Registration/certificate workflow outcomes. These are ordinary
	// user-facing results, not faults.
	CodeRegistrationClosed Code = "registration_closed"
	CodeCapacityExceeded   Code = "capacity_exceeded"
	CodeAlreadyRegistered  Code = "already_registered"
	CodeNotOwner           Code = "not_owner"
	CodeEventNotFinished   Code = "event_not_finished"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf extracts the outermost code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the outermost message from err, or "" when err carries
// no domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
