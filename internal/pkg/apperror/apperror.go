package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for the caller. The string value is what API
// clients see in the "error" field of a JSON error response.
type Kind string

const (
	KindUnauthorized   Kind = "unauthorized"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindInvalidState   Kind = "invalid_state"
	KindInvalidEntries Kind = "invalid_entries"
	KindNotMember      Kind = "not_member"
	KindConflict       Kind = "conflict"
	KindValidation     Kind = "validation"
	KindInternal       Kind = "internal_server_error"
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the domain error returned by all services.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

// Sentinels for errors.Is comparisons; matching is by Kind only.
var (
	ErrUnauthorized   = &Error{Kind: KindUnauthorized}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrInvalidEntries = &Error{Kind: KindInvalidEntries}
	ErrNotMember      = &Error{Kind: KindNotMember}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrInternal       = &Error{Kind: KindInternal}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

func Forbidden(message string) *Error { return New(KindForbidden, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func InvalidState(message string) *Error { return New(KindInvalidState, message) }

func InvalidEntries(message string) *Error { return New(KindInvalidEntries, message) }

func NotMember(message string) *Error { return New(KindNotMember, message) }

func Conflict(message string) *Error { return New(KindConflict, message) }

// Validation builds an "Invalid request data" error carrying field details.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "Invalid request data", Fields: fields}
}

// Internal wraps a store or infrastructure failure. The wrapped error is
// kept for logging but never sent to the client.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to the response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInvalidState, KindConflict:
		return fiber.StatusConflict
	case KindInvalidEntries, KindNotMember, KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
