// Package apperr defines the error kinds surfaced by the ride query engine and
// how they map onto HTTP status codes.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindValidation      Kind = "validation_error"
	KindNotFound        Kind = "not_found"
	KindUnavailable     Kind = "unavailable"
	KindTimeout         Kind = "timeout"
	KindInternal        Kind = "internal"
)

// HTTPStatus returns the status code a transport should answer with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a Kind, a client-safe message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.Forbidden(""))
// works without comparing messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Wrap(kind Kind, msg string, err error) *Error { return &Error{Kind: kind, Msg: msg, Err: err} }

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }
func Forbidden(msg string) *Error       { return New(KindForbidden, msg) }
func Validation(msg string) *Error      { return New(KindValidation, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message of err. Internal errors are never
// echoed back verbatim.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindInternal {
			return "internal server error"
		}
		return e.Msg
	}
	return "internal server error"
}

// FromContext classifies context cancellation. It returns nil for any other error.
func FromContext(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(KindTimeout, "query timed out", err)
	case errors.Is(err, context.Canceled):
		return Wrap(KindUnavailable, "request canceled", err)
	default:
		return nil
	}
}
