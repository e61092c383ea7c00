package sqlvibe

import (
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// Error is the structured error returned by Exec: a code, a message and an
// optional wrapped cause.
type Error = SVDB.Error

// ErrorCode follows the SQLite result code convention.
type ErrorCode = SVDB.ErrorCode

const (
	SVDB_OK                    = SVDB.SVDB_OK
	SVDB_ERROR                 = SVDB.SVDB_ERROR
	SVDB_INTERNAL              = SVDB.SVDB_INTERNAL
	SVDB_ABORT                 = SVDB.SVDB_ABORT
	SVDB_CONSTRAINT            = SVDB.SVDB_CONSTRAINT
	SVDB_MISMATCH              = SVDB.SVDB_MISMATCH
	SVDB_MISUSE                = SVDB.SVDB_MISUSE
	SVDB_CONSTRAINT_NOTNULL    = SVDB.SVDB_CONSTRAINT_NOTNULL
	SVDB_CONSTRAINT_PRIMARYKEY = SVDB.SVDB_CONSTRAINT_PRIMARYKEY
	SVDB_CONSTRAINT_UNIQUE     = SVDB.SVDB_CONSTRAINT_UNIQUE
	SVDB_CONSTRAINT_DATATYPE   = SVDB.SVDB_CONSTRAINT_DATATYPE
)

// ErrorCodeOf returns the ErrorCode of err: SVDB_OK for nil, the code of
// the first *Error in the chain, or SVDB_ERROR otherwise.
func ErrorCodeOf(err error) ErrorCode {
	return SVDB.ErrorCodeOf(err)
}

// IsErrorCode reports whether err carries the given error code.
func IsErrorCode(err error, code ErrorCode) bool {
	return ErrorCodeOf(err) == code
}

// IsConstraint reports whether err is any constraint violation.
func IsConstraint(err error) bool {
	return SVDB.IsConstraint(err)
}

// SQLStateOf returns the SQLSTATE for err.
func SQLStateOf(err error) string {
	return SVDB.SQLStateOf(err)
}

// NewError returns an *Error with the given code and message.
func NewError(code ErrorCode, msg string) *Error {
	return SVDB.NewError(code, msg)
}
