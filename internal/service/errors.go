package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/charter-booking/internal/repository"
)

// Kind classifies a service failure.  The string value doubles as the
// error code in HTTP responses.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindSlotUnavailable   Kind = "slot_unavailable"
	KindInvalidTransition Kind = "invalid_state"
	KindConflict          Kind = "conflict"
	KindTransient         Kind = "transient_store_error"
	KindInternal          Kind = "internal_error"
)

// Retryable reports whether a caller may retry the same request.
func (k Kind) Retryable() bool { return k == KindTransient }

// Error is the structured failure returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	// Conflicts is set for KindSlotUnavailable.
	Conflicts *Conflicts
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrSlotUnavailable   = &Error{Kind: KindSlotUnavailable}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrTransient         = &Error{Kind: KindTransient}
	ErrInternal          = &Error{Kind: KindInternal}
)

func validationErr(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func validationErrf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal for errors that did not
// come from this package.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// classify turns a store error into a service Error.  op names the failed
// operation for the message.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: op + ": not found", Err: err}
	case errors.Is(err, repository.ErrConflict):
		return &Error{Kind: KindConflict, Message: op + ": already exists", Err: err}
	case errors.Is(err, repository.ErrForbidden):
		return &Error{Kind: KindForbidden, Message: op + ": forbidden", Err: err}
	case errors.Is(err, context.Canceled), repository.IsTransient(err):
		return &Error{Kind: KindTransient, Message: op + ": store unavailable", Err: err}
	}
	return &Error{Kind: KindInternal, Message: op + ": store failure", Err: err}
}
