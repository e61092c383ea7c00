package errors

import (
	"fmt"

	crdberrors "github.com/cockroachdb/errors"
)

// Error is the engine-level error value. Code drives SQLSTATE mapping and
// lets callers distinguish planning failures from constraint violations.
type Error struct {
	Code     ErrorCode
	Message  string
	Err      error
	SQLState string
}

func NewError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCodeOf returns the code of the first *Error in err's chain,
// SVDB_OK for nil and SVDB_ERROR for foreign errors.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return SVDB_OK
	}
	var e *Error
	if crdberrors.As(err, &e) {
		return e.Code
	}
	if crdberrors.HasAssertionFailure(err) {
		return SVDB_INTERNAL
	}
	return SVDB_ERROR
}

// IsConstraint reports whether err is any constraint violation.
func IsConstraint(err error) bool {
	return ErrorCodeOf(err).Primary() == SVDB_CONSTRAINT
}
