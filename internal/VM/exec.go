package VM

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// Exec runs the program from the current pc until Halt. A Halt with a
// non-zero P1 returns an *SVDB.Error carrying that code and the P4 message.
func (vm *VM) Exec(ctx context.Context) error {
	for steps := 0; ; steps++ {
		if steps%ctxCheckInterval == 0 && ctx != nil {
			if err := ctx.Err(); err != nil {
				return SVDB.Wrap(err, SVDB.SVDB_ABORT, "statement interrupted")
			}
		}
		if vm.pc < 0 || vm.pc >= len(vm.program.Instructions) {
			return errors.AssertionFailedf("pc %d out of range", vm.pc)
		}
		inst := vm.GetInstruction()

		switch inst.Op {
		case OpNoop:
			continue

		case OpInit, OpGoto:
			vm.jump(inst.P2)
			continue

		case OpHalt:
			if inst.P1 != 0 {
				msg, _ := inst.P4.(string)
				return SVDB.NewError(SVDB.ErrorCode(inst.P1), msg)
			}
			return nil

		case OpHaltIfNull:
			if vm.registers[inst.P3].IsNull() {
				msg, _ := inst.P4.(string)
				return SVDB.NewError(SVDB.ErrorCode(inst.P1), msg)
			}
			continue

		case OpIf, OpIfNot:
			truth, ok := vm.registers[inst.P1].Truth()
			var take bool
			switch {
			case !ok:
				take = inst.P3 != 0
			case inst.Op == OpIf:
				take = truth
			default:
				take = !truth
			}
			if take {
				vm.jump(inst.P2)
			}
			continue

		case OpOpenWrite:
			name, _ := inst.P4.(string)
			if err := vm.cursors.Open(vm.store, int(inst.P1), inst.P3, name); err != nil {
				return err
			}
			continue

		case OpNewRowid:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			rowid, err := c.Table.NextRowid()
			if err != nil {
				return err
			}
			vm.registers[inst.P2] = DS.IntValue(rowid)
			continue

		case OpNotExists, OpSeekRowid:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			key := vm.registers[inst.P3]
			if inst.Op == OpSeekRowid {
				key = DS.ApplyAffinity(key, DS.AffinityInteger)
			}
			if key.Type != DS.TypeInt {
				if inst.Op == OpNotExists {
					return errors.AssertionFailedf("NotExists on non-integer key %s", key.TypeName())
				}
				c.Valid = false
				vm.jump(inst.P2)
				continue
			}
			if !c.SeekRowid(key.Int) {
				vm.jump(inst.P2)
			}
			continue

		case OpNoConflict:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			n, _ := inst.P4.(int)
			start := int(inst.P3)
			key := make([]DS.Value, n)
			copy(key, vm.registers[start:start+n])
			rowid, found := c.Index.Conflict(key, math.MinInt64)
			c.RowID, c.Valid = rowid, found
			if !found {
				vm.jump(inst.P2)
			}
			continue

		case OpIdxRowid:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			if !c.Valid {
				vm.registers[inst.P2] = DS.NullValue()
			} else {
				vm.registers[inst.P2] = DS.IntValue(c.RowID)
			}
			continue

		case OpColumn:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			v, err := c.Column(int(inst.P2))
			if err != nil {
				return err
			}
			vm.registers[inst.P3] = v
			continue

		case OpRowid:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			if !c.Valid {
				vm.registers[inst.P2] = DS.NullValue()
			} else {
				vm.registers[inst.P2] = DS.IntValue(c.RowID)
			}
			continue

		case OpNull:
			vm.registers[inst.P2] = DS.NullValue()
			continue

		case OpLoadConst:
			v, _ := inst.P4.(DS.Value)
			vm.registers[inst.P2] = v
			continue

		case OpVariable:
			idx := int(inst.P1)
			if idx >= 1 && idx <= len(vm.params) {
				vm.registers[inst.P2] = vm.params[idx-1]
			} else {
				vm.registers[inst.P2] = DS.NullValue()
			}
			continue

		case OpCopy:
			if err := vm.checkRegister(inst.P2 + inst.P3); err != nil {
				return err
			}
			for i := int32(0); i <= inst.P3; i++ {
				vm.registers[inst.P2+i] = vm.registers[inst.P1+i]
			}
			continue

		case OpMustBeInt:
			v := DS.ApplyAffinity(vm.registers[inst.P1], DS.AffinityInteger)
			if v.Type != DS.TypeInt {
				return SVDB.NewError(SVDB.SVDB_MISMATCH, "datatype mismatch")
			}
			vm.registers[inst.P1] = v
			continue

		case OpAffinity:
			vm.applyAffinity(int(inst.P1), int(inst.P2), inst.P4)
			continue

		case OpMakeRecord:
			start, n := int(inst.P1), int(inst.P2)
			vm.applyAffinity(start, n, inst.P4)
			vm.registers[inst.P3] = DS.BytesValue(DS.EncodeRecord(vm.registers[start : start+n]))
			continue

		case OpInsert:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			key := vm.registers[inst.P3]
			if key.Type != DS.TypeInt {
				return errors.AssertionFailedf("Insert with non-integer key %s", key.TypeName())
			}
			c.Table.Put(key.Int, vm.registers[inst.P2].Bytes)
			if c.Valid && c.RowID == key.Int {
				c.invalidate()
			}
			if inst.P5&OPFLAG_NCHANGE != 0 {
				vm.changes++
			}
			if inst.P5&OPFLAG_LASTROWID != 0 {
				vm.lastRowid = key.Int
			}
			continue

		case OpIdxInsert:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			if err := c.Index.Insert(vm.registers[inst.P2].Bytes); err != nil {
				return err
			}
			continue

		case OpIdxDelete:
			c, err := vm.cursors.Get(int(inst.P1))
			if err != nil {
				return err
			}
			start, n := int(inst.P2), int(inst.P3)
			found, err := c.Index.Delete(DS.EncodeRecord(vm.registers[start : start+n]))
			if err != nil {
				return err
			}
			if !found && inst.P5&OPFLAG_RAISE != 0 {
				return SVDB.Errorf(SVDB.SVDB_INTERNAL, "index %s: missing entry for rowid %s",
					c.Index.Name, vm.registers[start+n-1])
			}
			continue

		case OpTypeCheck:
			tbl, ok := inst.P4.(*IS.Table)
			if !ok {
				return errors.AssertionFailedf("TypeCheck without table descriptor")
			}
			if err := vm.typeCheck(int(inst.P1), int(inst.P2), tbl); err != nil {
				return err
			}
			continue

		case OpResultRow:
			start, n := int(inst.P1), int(inst.P2)
			row := make([]DS.Value, n)
			copy(row, vm.registers[start:start+n])
			vm.results = append(vm.results, row)
			continue

		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIs, OpIsNot:
			coll, _ := inst.P4.(string)
			vm.registers[inst.P3] = compareOp(inst.Op, vm.registers[inst.P1], vm.registers[inst.P2], coll)
			continue

		case OpIsNull:
			vm.registers[inst.P2] = DS.BoolValue(vm.registers[inst.P1].IsNull())
			continue

		case OpNotNull:
			vm.registers[inst.P2] = DS.BoolValue(!vm.registers[inst.P1].IsNull())
			continue

		case OpAdd, OpSubtract, OpMultiply, OpDivide, OpRemainder:
			vm.registers[inst.P3] = arith(inst.Op, vm.registers[inst.P1], vm.registers[inst.P2])
			continue

		case OpNegate:
			vm.registers[inst.P2] = negate(vm.registers[inst.P1])
			continue

		case OpAnd, OpOr:
			vm.registers[inst.P3] = logic(inst.Op, vm.registers[inst.P1], vm.registers[inst.P2])
			continue

		case OpNot:
			truth, ok := vm.registers[inst.P1].Truth()
			if !ok {
				vm.registers[inst.P2] = DS.NullValue()
			} else {
				vm.registers[inst.P2] = DS.BoolValue(!truth)
			}
			continue

		case OpConcat:
			l, r := vm.registers[inst.P1], vm.registers[inst.P2]
			if l.IsNull() || r.IsNull() {
				vm.registers[inst.P3] = DS.NullValue()
			} else {
				vm.registers[inst.P3] = DS.StringValue(textOf(l) + textOf(r))
			}
			continue

		case OpLike:
			val, pat := vm.registers[inst.P1], vm.registers[inst.P2]
			esc := DS.NullValue()
			escReg, _ := inst.P4.(int)
			if escReg > 0 {
				esc = vm.registers[escReg]
			}
			v, err := likeOp(val, pat, esc, inst.P5&OPFLAG_GLOB != 0, escReg > 0)
			if err != nil {
				return err
			}
			vm.registers[inst.P3] = v
			continue

		case OpCast:
			typ, _ := inst.P4.(string)
			vm.registers[inst.P2] = castValue(vm.registers[inst.P1], typ)
			continue

		case OpIn:
			list, _ := inst.P4.(InList)
			start := int(inst.P2)
			vm.registers[inst.P3] = inOp(vm.registers[inst.P1], vm.registers[start:start+list.Count], list.Collation)
			continue

		case OpFunction:
			name, _ := inst.P4.(string)
			start, n := int(inst.P1), int(inst.P2)
			v, err := callFunction(name, vm.registers[start:start+n])
			if err != nil {
				return err
			}
			vm.registers[inst.P3] = v
			continue

		default:
			return errors.AssertionFailedf("unimplemented opcode %s at address %d", inst.Op, vm.pc-1)
		}
	}
}

func (vm *VM) applyAffinity(start, n int, p4 interface{}) {
	aff, _ := p4.(string)
	if aff == "" {
		return
	}
	for i := 0; i < n && i < len(aff); i++ {
		vm.registers[start+i] = DS.ApplyAffinity(vm.registers[start+i], aff[i])
	}
}

// typeCheck coerces registers [start, start+n) to tbl's STRICT column types.
func (vm *VM) typeCheck(start, n int, tbl *IS.Table) error {
	for i := 0; i < n && i < len(tbl.Columns); i++ {
		col := tbl.Columns[i]
		v, ok := DS.CheckStrict(vm.registers[start+i], col.Type)
		if !ok {
			return SVDB.Errorf(SVDB.SVDB_CONSTRAINT_DATATYPE, "cannot store %s value in %s column %s.%s",
				v.StorageName(), col.Type, tbl.Name, col.Name)
		}
		vm.registers[start+i] = v
	}
	return nil
}
