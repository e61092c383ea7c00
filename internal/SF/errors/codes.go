package errors

import "fmt"

// ErrorCode mirrors the SQLite result-code space: the low byte is the
// primary code, extended codes carry detail in the upper bits.
type ErrorCode int32

const (
	SVDB_OK         ErrorCode = 0
	SVDB_ERROR      ErrorCode = 1
	SVDB_INTERNAL   ErrorCode = 2
	SVDB_ABORT      ErrorCode = 4
	SVDB_NOTFOUND   ErrorCode = 12
	SVDB_FULL       ErrorCode = 13
	SVDB_CONSTRAINT ErrorCode = 19
	SVDB_MISMATCH   ErrorCode = 20
	SVDB_MISUSE     ErrorCode = 21
	SVDB_RANGE      ErrorCode = 25

	SVDB_CONSTRAINT_CHECK      = SVDB_CONSTRAINT | (1 << 8)
	SVDB_CONSTRAINT_FOREIGNKEY = SVDB_CONSTRAINT | (3 << 8)
	SVDB_CONSTRAINT_NOTNULL    = SVDB_CONSTRAINT | (5 << 8)
	SVDB_CONSTRAINT_PRIMARYKEY = SVDB_CONSTRAINT | (6 << 8)
	SVDB_CONSTRAINT_UNIQUE     = SVDB_CONSTRAINT | (8 << 8)
	SVDB_CONSTRAINT_DATATYPE   = SVDB_CONSTRAINT | (12 << 8)
)

var codeNames = map[ErrorCode]string{
	SVDB_OK:                    "SVDB_OK",
	SVDB_ERROR:                 "SVDB_ERROR",
	SVDB_INTERNAL:              "SVDB_INTERNAL",
	SVDB_ABORT:                 "SVDB_ABORT",
	SVDB_NOTFOUND:              "SVDB_NOTFOUND",
	SVDB_FULL:                  "SVDB_FULL",
	SVDB_CONSTRAINT:            "SVDB_CONSTRAINT",
	SVDB_MISMATCH:              "SVDB_MISMATCH",
	SVDB_MISUSE:                "SVDB_MISUSE",
	SVDB_RANGE:                 "SVDB_RANGE",
	SVDB_CONSTRAINT_CHECK:      "SVDB_CONSTRAINT_CHECK",
	SVDB_CONSTRAINT_FOREIGNKEY: "SVDB_CONSTRAINT_FOREIGNKEY",
	SVDB_CONSTRAINT_NOTNULL:    "SVDB_CONSTRAINT_NOTNULL",
	SVDB_CONSTRAINT_PRIMARYKEY: "SVDB_CONSTRAINT_PRIMARYKEY",
	SVDB_CONSTRAINT_UNIQUE:     "SVDB_CONSTRAINT_UNIQUE",
	SVDB_CONSTRAINT_DATATYPE:   "SVDB_CONSTRAINT_DATATYPE",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("SVDB_UNKNOWN(%d)", int32(c))
}

// Primary strips the extended bits.
func (c ErrorCode) Primary() ErrorCode {
	return c & 0xff
}
