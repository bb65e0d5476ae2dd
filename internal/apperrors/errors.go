// Package apperrors defines the error kinds surfaced by the API and their HTTP statuses.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the API boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindNotFound
)

// Sentinels usable with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("unauthorized")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")
)

// Error carries a client-safe message and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can write errors.Is(err, ErrConflict).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrAuth:
		return e.Kind == KindAuth
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInternal:
		return e.Kind == KindInternal
	}
	return false
}

// Validation reports bad client input (400).
func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// Conflict reports a uniqueness clash such as a taken email (409).
func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

// Auth reports a missing or rejected session or credentials (401).
func Auth(msg string) error { return &Error{Kind: KindAuth, Message: msg} }

// NotFound reports a referenced record that does not exist (404).
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

// Internal wraps a store or system failure. The cause is kept for logging only.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// HTTPStatus maps an error to its response status and client message.
// Unclassified errors become a generic 500.
func HTTPStatus(err error) (int, string) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "Internal server error"
	}
	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest, appErr.Message
	case KindConflict:
		return http.StatusConflict, appErr.Message
	case KindAuth:
		return http.StatusUnauthorized, appErr.Message
	case KindNotFound:
		return http.StatusNotFound, appErr.Message
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
