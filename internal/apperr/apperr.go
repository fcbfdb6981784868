package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every *Error wraps exactly one of these so callers can use errors.Is.
var (
	ErrValidation     = errors.New("validation_error")
	ErrAuthentication = errors.New("authentication_error")
	ErrAuthorization  = errors.New("authorization_error")
	ErrNotFound       = errors.New("not_found")
	ErrConflict       = errors.New("conflict")
	ErrInvalidState   = errors.New("invalid_state")
	ErrUnavailable    = errors.New("unavailable")
	ErrCapacity       = errors.New("capacity_exceeded")
)

type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newf(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(ErrValidation, format, args...)
}

func Authentication(format string, args ...interface{}) *Error {
	return newf(ErrAuthentication, format, args...)
}

func Authorization(format string, args ...interface{}) *Error {
	return newf(ErrAuthorization, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(ErrNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(ErrConflict, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newf(ErrInvalidState, format, args...)
}

func Unavailable(format string, args ...interface{}) *Error {
	return newf(ErrUnavailable, format, args...)
}

func Capacity(format string, args ...interface{}) *Error {
	return newf(ErrCapacity, format, args...)
}

// StatusCode maps an error to the HTTP status the API answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrCapacity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns the machine readable kind of err, or "internal_error".
func Kind(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != nil {
		return appErr.Kind.Error()
	}
	return "internal_error"
}
