package CG

import (
	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
	"github.com/sqlvibe/upsertc/internal/SF/util"
	"github.com/sqlvibe/upsertc/internal/VM"
)

// IndexCursor is an open cursor on one of the table's indexes.
type IndexCursor struct {
	Name   string
	Cursor int
}

// UpsertTarget is what the emitter needs to know about the statement's
// table and its open cursors.
type UpsertTarget struct {
	Schema       *IS.Schema
	Table        *IS.Table
	TableCursor  int
	IndexCursors []IndexCursor
	// CDCCursor is the change-capture table cursor, or -1.
	CDCCursor int
	Returning []QP.ResultColumn
}

// EmitUpsert emits DO UPDATE for the row whose key is in conflictRowidReg.
// sets must already have excluded.* rewritten. Every path ends at rowDone:
// a vanished row or a false WHERE skip the update, constraint failures
// halt the statement.
func EmitUpsert(b *VM.ProgramBuilder, tgt *UpsertTarget, conflictRowidReg int, sets []SetPair, where QP.Expr, rowDone VM.BranchOffset) error {
	table := tgt.Table
	cur := tgt.TableCursor

	b.EmitJump(VM.OpSeekRowid, cur, rowDone, conflictRowidReg, nil)

	numCols := len(table.Columns)
	util.Assertf(numCols > 0, "upsert into %s with no columns", table.Name)
	currentStart := b.AllocRegisters(numCols)
	for i, col := range table.Columns {
		if col.IsRowidAlias {
			b.EmitInsn(VM.Instruction{Op: VM.OpRowid, P1: int32(cur), P2: int32(currentStart + i)})
		} else {
			b.EmitInsn(VM.Instruction{Op: VM.OpColumn, P1: int32(cur), P2: int32(i), P3: int32(currentStart + i)})
		}
	}

	beforeStart := 0
	if tgt.CDCCursor >= 0 || len(tgt.IndexCursors) > 0 {
		beforeStart = b.AllocRegisters(numCols)
		b.EmitCopy(currentStart, beforeStart, numCols)
	}

	newStart := b.AllocRegisters(numCols)
	b.EmitCopy(currentStart, newStart, numCols)

	if where != nil {
		RewriteTargetColsToCurrentRow(&where, table, currentStart, conflictRowidReg)
		pr := b.AllocRegister()
		if err := TranslateExpr(b, where, pr); err != nil {
			return err
		}
		b.EmitIfNot(pr, rowDone, true)
	}

	for _, set := range sets {
		e := set.Expr
		RewriteTargetColsToCurrentRow(&e, table, currentStart, conflictRowidReg)
		dst := newStart + set.Col
		if err := TranslateExprNoConstantOpt(b, e, dst, NoConstantOptRegisterReuse); err != nil {
			return err
		}
		col := table.Columns[set.Col]
		if col.NotNull && !col.IsRowidAlias {
			b.EmitHaltIfNull(int32(SVDB.SVDB_CONSTRAINT_NOTNULL), dst,
				"NOT NULL constraint failed: "+table.Name+"."+col.Name)
		}
	}

	// The row keeps its key whatever SET assigned to the INTEGER PRIMARY KEY.
	if ai, _, ok := table.RowidAlias(); ok {
		b.EmitCopy(conflictRowidReg, newStart+ai, 1)
	}

	b.EmitInsn(VM.Instruction{Op: VM.OpAffinity, P1: int32(newStart), P2: int32(numCols), P4: table.AffinityString()})

	if table.Strict {
		b.EmitInsn(VM.Instruction{Op: VM.OpTypeCheck, P1: int32(newStart), P2: int32(numCols), P4: table})
	}

	if beforeStart != 0 {
		for _, ic := range tgt.IndexCursors {
			idx, err := tgt.Schema.GetIndex(table.Name, ic.Name)
			if err != nil {
				return err
			}
			k := len(idx.Columns)

			del := b.AllocRegisters(k + 1)
			if err := copyIndexKey(b, table, idx, beforeStart, conflictRowidReg, del); err != nil {
				return err
			}
			b.EmitInsn(VM.Instruction{Op: VM.OpIdxDelete, P1: int32(ic.Cursor), P2: int32(del), P3: int32(k + 1)})

			ins := b.AllocRegisters(k + 1)
			if err := copyIndexKey(b, table, idx, newStart, conflictRowidReg, ins); err != nil {
				return err
			}
			rec := b.AllocRegister()
			b.EmitMakeRecord(ins, k+1, rec, "")
			b.EmitInsn(VM.Instruction{Op: VM.OpIdxInsert, P1: int32(ic.Cursor), P2: int32(rec)})
		}
	}

	mode := b.CaptureDataChangesMode()
	beforeRec := 0
	if tgt.CDCCursor >= 0 && mode.HasBefore() {
		// Read before the row is overwritten below.
		beforeRec = emitRowRecord(b, table, cur)
	}

	rec := b.AllocRegister()
	b.EmitMakeRecord(newStart, numCols, rec, table.AffinityString())
	b.EmitInsn(VM.Instruction{
		Op: VM.OpInsert, P1: int32(cur), P2: int32(rec), P3: int32(conflictRowidReg),
		P5: VM.OPFLAG_NCHANGE, Comment: table.Name,
	})

	if tgt.CDCCursor >= 0 {
		afterRec := 0
		if mode.HasAfter() {
			afterRec = rec
		}
		EmitCDC(b, tgt.CDCCursor, CDCUpdate, table.Name, conflictRowidReg, beforeRec, afterRec)
	}

	if len(tgt.Returning) > 0 {
		row := ReturningRow{RowidReg: conflictRowidReg, ColStart: newStart, NumCols: numCols}
		if err := EmitReturning(b, table, tgt.Returning, row); err != nil {
			return err
		}
	}

	b.EmitGoto(rowDone)
	return nil
}

// copyIndexKey gathers idx's key columns from the row image at rowStart,
// followed by the rowid, into dst.
func copyIndexKey(b *VM.ProgramBuilder, table *IS.Table, idx *IS.Index, rowStart, rowidReg, dst int) error {
	for i, ic := range idx.Columns {
		ci, _, ok := table.GetColumnByName(ic.Name)
		if !ok {
			return errors.AssertionFailedf("index %s names unknown column %s.%s", idx.Name, table.Name, ic.Name)
		}
		b.EmitCopy(rowStart+ci, dst+i, 1)
	}
	b.EmitCopy(rowidReg, dst+len(idx.Columns), 1)
	return nil
}
