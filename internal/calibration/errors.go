package calibration

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors for callers deciding whether to retry or
// correct their input.
type Kind string

const (
	KindValidation       Kind = "ValidationError"
	KindDuplicate        Kind = "DuplicateInstrument"
	KindNotFound         Kind = "NotFound"
	KindImmutableField   Kind = "ImmutableField"
	KindInvalidFrequency Kind = "InvalidFrequency"
	KindInvalidDate      Kind = "InvalidDate"
	KindConflict         Kind = "Conflict"
	KindInternal         Kind = "Internal"
)

// Error is returned by every engine operation that fails on caller input or
// contention. Storage failures are returned as plain wrapped errors.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrDuplicate        = &Error{Kind: KindDuplicate}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrImmutableField   = &Error{Kind: KindImmutableField}
	ErrInvalidFrequency = &Error{Kind: KindInvalidFrequency}
	ErrInvalidDate      = &Error{Kind: KindInvalidDate}
	ErrConflict         = &Error{Kind: KindConflict}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// KindOf reports the kind of err, or KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
