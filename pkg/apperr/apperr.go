// Package apperr defines the typed error taxonomy raised by services and
// repositories and rendered once at the HTTP boundary. Each kind maps to a
// fixed status code and carries a translatable message key plus optional
// per-field details.
package apperr

import (
	"errors"
	"net/http"
)

// Kind enumerates the failure categories the core can raise.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAccessDenied
	KindUnauthorized
	KindConflict
	KindValidation
	KindForeignKeyConstraint
	KindBusinessLogic
	KindDatabaseConnection
)

// Detail points a message at a specific input field.
type Detail struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Error is the single error type crossing the service/handler boundary.
type Error struct {
	Kind       Kind     `json:"-"`
	StatusCode int      `json:"status_code"`
	MessageKey string   `json:"message"`
	Details    []Detail `json:"details,omitempty"`
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.MessageKey + ": " + e.cause.Error()
	}
	return e.MessageKey
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error without changing what the client sees.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func newError(kind Kind, status int, messageKey string, details ...Detail) *Error {
	return &Error{Kind: kind, StatusCode: status, MessageKey: messageKey, Details: details}
}

func NotFound(messageKey string, details ...Detail) *Error {
	return newError(KindNotFound, http.StatusNotFound, messageKey, details...)
}

func AccessDenied(messageKey string, details ...Detail) *Error {
	return newError(KindAccessDenied, http.StatusForbidden, messageKey, details...)
}

func Unauthorized(messageKey string, details ...Detail) *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, messageKey, details...)
}

func Conflict(messageKey string, details ...Detail) *Error {
	return newError(KindConflict, http.StatusConflict, messageKey, details...)
}

func Validation(messageKey string, details ...Detail) *Error {
	return newError(KindValidation, http.StatusBadRequest, messageKey, details...)
}

func ForeignKeyConstraint(messageKey string, details ...Detail) *Error {
	return newError(KindForeignKeyConstraint, http.StatusBadRequest, messageKey, details...)
}

func BusinessLogic(messageKey string, details ...Detail) *Error {
	return newError(KindBusinessLogic, http.StatusBadRequest, messageKey, details...)
}

func DatabaseConnection(messageKey string, details ...Detail) *Error {
	return newError(KindDatabaseConnection, http.StatusServiceUnavailable, messageKey, details...)
}

// From extracts an *Error from err, or nil when err is of another type.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	if appErr := From(err); appErr != nil {
		return appErr.Kind == kind
	}
	return false
}

// Status returns the HTTP status for err, defaulting to 500 for untyped errors.
func Status(err error) int {
	if appErr := From(err); appErr != nil {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
