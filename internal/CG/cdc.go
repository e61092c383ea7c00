package CG

import (
	"fmt"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/VM"
)

// Change kinds stored in the change_type column of the CDC table.
const (
	CDCUpdate int64 = 0
	CDCInsert int64 = 1
)

// CDCTableSQL is the DDL of the change-capture table.
func CDCTableSQL(name string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"change_id INTEGER PRIMARY KEY, change_type INTEGER, table_name TEXT, "+
		"id INTEGER, before BLOB, after BLOB)", name)
}

// emitRowRecord serializes the stored row under cursor, reading the
// INTEGER PRIMARY KEY from the row's key, and returns the record register.
func emitRowRecord(b *VM.ProgramBuilder, table *IS.Table, cursor int) int {
	n := len(table.Columns)
	start := b.AllocRegisters(n)
	for i, col := range table.Columns {
		if col.IsRowidAlias {
			b.EmitInsn(VM.Instruction{Op: VM.OpRowid, P1: int32(cursor), P2: int32(start + i)})
		} else {
			b.EmitInsn(VM.Instruction{Op: VM.OpColumn, P1: int32(cursor), P2: int32(i), P3: int32(start + i)})
		}
	}
	rec := b.AllocRegister()
	b.EmitMakeRecord(start, n, rec, "")
	return rec
}

// EmitCDC appends one change record to the CDC table. beforeRec and
// afterRec are record registers, or 0 for none.
func EmitCDC(b *VM.ProgramBuilder, cdcCursor int, changeType int64, tableName string, rowidReg, beforeRec, afterRec int) {
	regs := b.AllocRegisters(6)
	b.EmitInsn(VM.Instruction{Op: VM.OpNewRowid, P1: int32(cdcCursor), P2: int32(regs)})
	b.EmitLoadConst(regs+1, DS.IntValue(changeType))
	b.EmitLoadConst(regs+2, DS.StringValue(tableName))
	b.EmitCopy(rowidReg, regs+3, 1)
	for i, rec := range []int{beforeRec, afterRec} {
		if rec == 0 {
			b.EmitNull(regs + 4 + i)
		} else {
			b.EmitCopy(rec, regs+4+i, 1)
		}
	}
	rec := b.AllocRegister()
	b.EmitMakeRecord(regs, 6, rec, "")
	b.EmitInsn(VM.Instruction{Op: VM.OpInsert, P1: int32(cdcCursor), P2: int32(rec), P3: int32(regs)})
}
