package VM

// OpCode represents the operation codes for the VM
type OpCode int

const (
	// Control flow
	OpInit OpCode = iota
	OpGoto
	OpHalt
	OpHaltIfNull
	OpIf
	OpIfNot

	// Cursor operations
	OpOpenWrite
	OpNewRowid
	OpNotExists
	OpSeekRowid
	OpNoConflict
	OpIdxRowid
	OpColumn
	OpRowid

	// Memory operations
	OpNull
	OpLoadConst
	OpVariable
	OpCopy
	OpMustBeInt
	OpAffinity

	// Records and writes
	OpMakeRecord
	OpInsert
	OpIdxInsert
	OpIdxDelete
	OpTypeCheck

	// Result
	OpResultRow

	// Comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIs
	OpIsNot
	OpIsNull
	OpNotNull

	// Arithmetic
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpRemainder
	OpNegate

	// Logic
	OpAnd
	OpOr
	OpNot

	// String operations
	OpConcat
	OpLike

	// Type conversion
	OpCast

	// Misc
	OpIn
	OpFunction
	OpNoop

	// Last - must be last
	OpLastCode
)

// OpCodeInfo holds the display name of each opcode
var OpCodeInfo = map[OpCode]string{
	OpInit:       "Init",
	OpGoto:       "Goto",
	OpHalt:       "Halt",
	OpHaltIfNull: "HaltIfNull",
	OpIf:         "If",
	OpIfNot:      "IfNot",

	OpOpenWrite:  "OpenWrite",
	OpNewRowid:   "NewRowid",
	OpNotExists:  "NotExists",
	OpSeekRowid:  "SeekRowid",
	OpNoConflict: "NoConflict",
	OpIdxRowid:   "IdxRowid",
	OpColumn:     "Column",
	OpRowid:      "Rowid",

	OpNull:      "Null",
	OpLoadConst: "LoadConst",
	OpVariable:  "Variable",
	OpCopy:      "Copy",
	OpMustBeInt: "MustBeInt",
	OpAffinity:  "Affinity",

	OpMakeRecord: "MakeRecord",
	OpInsert:     "Insert",
	OpIdxInsert:  "IdxInsert",
	OpIdxDelete:  "IdxDelete",
	OpTypeCheck:  "TypeCheck",

	OpResultRow: "ResultRow",

	OpEq:      "Eq",
	OpNe:      "Ne",
	OpLt:      "Lt",
	OpLe:      "Le",
	OpGt:      "Gt",
	OpGe:      "Ge",
	OpIs:      "Is",
	OpIsNot:   "IsNot",
	OpIsNull:  "IsNull",
	OpNotNull: "NotNull",

	OpAdd:       "Add",
	OpSubtract:  "Subtract",
	OpMultiply:  "Multiply",
	OpDivide:    "Divide",
	OpRemainder: "Remainder",
	OpNegate:    "Negate",

	OpAnd: "And",
	OpOr:  "Or",
	OpNot: "Not",

	OpConcat: "Concat",
	OpLike:   "Like",

	OpCast: "Cast",

	OpIn:       "In",
	OpFunction: "Function",
	OpNoop:     "Noop",
}

func (op OpCode) String() string {
	if name, ok := OpCodeInfo[op]; ok {
		return name
	}
	return "Unknown"
}

// IsJump reports whether P2 of the opcode is a jump target.
func (op OpCode) IsJump() bool {
	switch op {
	case OpInit, OpGoto, OpIf, OpIfNot, OpNotExists, OpSeekRowid, OpNoConflict:
		return true
	}
	return false
}

// Flags carried in P5.
const (
	// OPFLAG_NCHANGE on Insert counts the row in the statement's changes.
	OPFLAG_NCHANGE uint16 = 0x01
	// OPFLAG_LASTROWID on Insert records the key as the last insert rowid.
	OPFLAG_LASTROWID uint16 = 0x02
	// OPFLAG_GLOB on Like switches to GLOB matching.
	OPFLAG_GLOB uint16 = 0x01
	// OPFLAG_RAISE on IdxDelete fails when the entry is missing.
	OPFLAG_RAISE uint16 = 0x01
)

// Cursor kinds, carried in P3 of OpenWrite.
const (
	CursorTable int32 = 0
	CursorIndex int32 = 1
)
