// Package apperr defines the error kinds the catalog core reports:
// validation, not-found, conflict, insufficient stock and timeout. Kinds are
// how callers branch — reconciliation collects row-scoped errors into the
// batch report, the commit engine aborts the whole order, and the HTTP layer
// maps each kind to a status code and a safe message.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error for propagation decisions and HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindTimeout
)

// String returns the wire name of the kind, used in reconciliation reports
// ("error:validation") and commit failure reason codes.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a kind-tagged error. Msg is safe to include in reports; wrapped
// causes stay internal.
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

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func Timeout(format string, args ...interface{}) *Error {
	return newf(KindTimeout, format, args...)
}

// Wrap tags an underlying error with a kind without losing the cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err. Context deadline errors count as
// timeouts so per-row import budgets surface uniformly.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
