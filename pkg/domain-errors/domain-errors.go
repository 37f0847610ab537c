package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound          Code = "not_found"
	CodeBadRequest        Code = "bad_request"
	CodeValidation        Code = "validation_failed"
	CodeConflict          Code = "conflict"
	CodeInternal          Code = "internal_error"
	CodeUnauthorized      Code = "unauthorized"
	CodeInvalidTransition Code = "invalid_transition"

	// CodeUpstreamUnavailable marks actuator or audit sink failures. These are
	// operational signals: they never fail the owning session.
	CodeUpstreamUnavailable Code = "upstream_unavailable"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error

	// State carries the current session state when the error relates to a
	// session, so callers can resynchronize after NotFound/InvalidTransition.
	State string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewWithState creates a domain error carrying the session state it was
// observed in.
func NewWithState(code Code, msg, state string) error {
	return &Error{Code: code, Message: msg, State: state}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err, State: existing.State}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// StateOf returns the session state attached to a domain error, if any.
func StateOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.State
	}
	return ""
}
