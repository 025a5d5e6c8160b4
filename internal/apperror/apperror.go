package apperror

import (
	"errors"
	"fmt"
)

// Kind categorizes domain errors so the transport layer can map them to a status.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindInsufficientStock Kind = "insufficient_stock"
	KindIndexOutOfRange   Kind = "index_out_of_range"
	KindAccessDenied      Kind = "access_denied"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// Error is the structured error every core operation fails with.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so errors.Is(err, apperror.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrIndexOutOfRange   = &Error{Kind: KindIndexOutOfRange}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied}
	ErrConflict          = &Error{Kind: KindConflict}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func Validation(msg string) *Error { return New(KindValidation, msg) }

func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func InsufficientStockf(format string, args ...any) *Error {
	return New(KindInsufficientStock, fmt.Sprintf(format, args...))
}

func IndexOutOfRangef(format string, args ...any) *Error {
	return New(KindIndexOutOfRange, fmt.Sprintf(format, args...))
}

func AccessDenied(msg string) *Error { return New(KindAccessDenied, msg) }

func Conflictf(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
