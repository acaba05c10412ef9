// internal/errors/mapper.go
package errors

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Kind distinguishes the recoverable failure classes the services surface.
// The HTTP layer maps kinds to status codes; services never speak HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
)

// Error is a domain error with a caller-distinguishable kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e *Error) Unwrap() error { return e.Err }

// Validation creates a ValidationError (malformed or missing input).
func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// NotFound creates a NotFoundError (referenced user/record does not exist).
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Conflict creates a ConflictError (duplicate like and the like).
func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// Forbidden creates a ForbiddenError (operation gated on match state).
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Msg: msg} }

// Internal wraps an unexpected persistence/infra failure. No retry here;
// retry policy belongs to the caller.
func Internal(err error) error { return &Error{Kind: KindInternal, Err: err} }

// Map converts repo/infra errors into domain errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("record not found")
	}

	return Internal(err)
}

// KindOf extracts the kind from any error chain; plain errors are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// HTTPStatus maps a domain error to the transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the body shown to clients. Internal details stay in logs.
func UserMessage(err error) string {
	if KindOf(err) == KindInternal {
		return "internal error"
	}
	return err.Error()
}
