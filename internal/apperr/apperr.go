// Package apperr defines the failure kinds every calendar operation reports.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the calling layer.
type Kind int

const (
	// KindUnknown is reported for errors that carry no Kind.
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidInput
	// KindTransactionFailure is a store-level abort. It is fatal to the request.
	KindTransactionFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindTransactionFailure:
		return "transaction_failure"
	default:
		return "unknown"
	}
}

// Error is a classified failure with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind, keeping it reachable through errors.Is/As.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Forbidden(err error, format string, args ...interface{}) *Error {
	return Wrap(KindForbidden, err, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func InvalidInput(format string, args ...interface{}) *Error {
	return New(KindInvalidInput, format, args...)
}

func TransactionFailure(err error, format string, args ...interface{}) *Error {
	return Wrap(KindTransactionFailure, err, format, args...)
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
