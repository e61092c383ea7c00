package errors

import crdberrors "github.com/cockroachdb/errors"

// SQLSTATE codes (SQL standard ISO/IEC 9075)
const (
	SQLState_OK                           = "00000"
	SQLState_NumericValueOutOfRange       = "22003"
	SQLState_IntegrityConstraintViolation = "23000"
	SQLState_NotNullViolation             = "23502"
	SQLState_ForeignKeyViolation          = "23503"
	SQLState_UniqueViolation              = "23505"
	SQLState_CheckViolation               = "23514"
	SQLState_DatatypeMismatch             = "42804"
	SQLState_UndefinedColumn              = "42703"
	SQLState_InvalidColumnReference       = "42P10"
	SQLState_InternalError                = "XX000"
)

// WithSQLState returns a copy of e with the given SQLState code.
func WithSQLState(e *Error, state string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: e.Err, SQLState: state}
}

// SQLStateOf returns the SQLSTATE code for the error, or "00000" if nil.
func SQLStateOf(err error) string {
	if err == nil {
		return SQLState_OK
	}
	var e *Error
	if crdberrors.As(err, &e) && e.SQLState != "" {
		return e.SQLState
	}
	switch ErrorCodeOf(err) {
	case SVDB_CONSTRAINT_UNIQUE, SVDB_CONSTRAINT_PRIMARYKEY:
		return SQLState_UniqueViolation
	case SVDB_CONSTRAINT_FOREIGNKEY:
		return SQLState_ForeignKeyViolation
	case SVDB_CONSTRAINT_NOTNULL:
		return SQLState_NotNullViolation
	case SVDB_CONSTRAINT_CHECK:
		return SQLState_CheckViolation
	case SVDB_CONSTRAINT_DATATYPE:
		return SQLState_DatatypeMismatch
	case SVDB_CONSTRAINT:
		return SQLState_IntegrityConstraintViolation
	case SVDB_INTERNAL:
		return SQLState_InternalError
	default:
		return "HY000" // General error
	}
}
