// Package apperr defines the error taxonomy shared by every module.
// Handlers translate these into HTTP statuses; services wrap their own
// sentinel errors into one of the four kinds.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindUpstream   Kind = "UPSTREAM_ERROR"
)

// Error carries a kind, a client-safe message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string, err error) error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

func NotFound(msg string, err error) error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

func Conflict(msg string, err error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// HTTPStatus maps an error onto a response status. Unclassified errors are 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to API clients.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		if e.Kind == KindValidation || e.Kind == KindConflict || e.Kind == KindNotFound {
			return e.Error()
		}
		return e.Message
	}
	return "internal server error"
}
