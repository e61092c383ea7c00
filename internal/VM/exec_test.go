package VM

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

func run(t *testing.T, b *ProgramBuilder, store *DS.Store, params ...DS.Value) (*VM, error) {
	t.Helper()
	p, err := b.Build()
	require.NoError(t, err)
	if store == nil {
		store = DS.NewStore()
	}
	vm := NewVM(p, store)
	return vm, vm.Run(context.Background(), params)
}

func TestExec_ArithmeticAndResultRow(t *testing.T) {
	b := NewProgramBuilder(ProgramBuilderOpts{})
	a, c, out := b.AllocRegister(), b.AllocRegister(), b.AllocRegisters(4)
	b.EmitLoadConst(a, DS.IntValue(7))
	b.EmitLoadConst(c, DS.StringValue("2"))
	b.EmitInsn(Instruction{Op: OpAdd, P1: int32(a), P2: int32(c), P3: int32(out)})
	b.EmitInsn(Instruction{Op: OpDivide, P1: int32(a), P2: int32(c), P3: int32(out + 1)})
	b.EmitInsn(Instruction{Op: OpConcat, P1: int32(a), P2: int32(c), P3: int32(out + 2)})
	b.EmitInsn(Instruction{Op: OpDivide, P1: int32(a), P2: int32(out + 3), P3: int32(out + 3)})
	b.EmitResultRow(out, 4)

	vm, err := run(t, b, nil)
	require.NoError(t, err)
	require.Len(t, vm.Results(), 1)
	row := vm.Results()[0]
	assert.Equal(t, DS.IntValue(9), row[0])
	assert.Equal(t, DS.IntValue(3), row[1])
	assert.Equal(t, DS.StringValue("72"), row[2])
	assert.True(t, row[3].IsNull(), "division by NULL register is NULL")
}

func TestExec_IntegerOverflowBecomesReal(t *testing.T) {
	b := NewProgramBuilder(ProgramBuilderOpts{})
	a, out := b.AllocRegister(), b.AllocRegister()
	b.EmitLoadConst(a, DS.IntValue(1<<62))
	b.EmitInsn(Instruction{Op: OpAdd, P1: int32(a), P2: int32(a), P3: int32(out)})
	b.EmitResultRow(out, 1)

	vm, err := run(t, b, nil)
	require.NoError(t, err)
	assert.Equal(t, DS.TypeFloat, vm.Results()[0][0].Type)
}

func TestExec_IfNotNullHandling(t *testing.T) {
	for _, jumpIfNull := range []bool{false, true} {
		b := NewProgramBuilder(ProgramBuilderOpts{})
		cond, out := b.AllocRegister(), b.AllocRegister()
		skip := b.AllocateLabel()
		b.EmitNull(cond)
		b.EmitLoadConst(out, DS.IntValue(0))
		b.EmitIfNot(cond, skip, jumpIfNull)
		b.EmitLoadConst(out, DS.IntValue(1))
		b.ResolveLabel(skip)
		b.EmitResultRow(out, 1)

		vm, err := run(t, b, nil)
		require.NoError(t, err)
		want := int64(1)
		if jumpIfNull {
			want = 0
		}
		assert.Equal(t, want, vm.Results()[0][0].Int, "jumpIfNull=%v", jumpIfNull)
	}
}

func TestExec_HaltIfNull(t *testing.T) {
	b := NewProgramBuilder(ProgramBuilderOpts{})
	r := b.AllocRegister()
	b.EmitNull(r)
	b.EmitHaltIfNull(int32(SVDB.SVDB_CONSTRAINT_NOTNULL), r, "NOT NULL constraint failed: t.a")

	_, err := run(t, b, nil)
	require.Error(t, err)
	assert.Equal(t, SVDB.SVDB_CONSTRAINT_NOTNULL, SVDB.ErrorCodeOf(err))
	assert.Equal(t, "NOT NULL constraint failed: t.a", err.(*SVDB.Error).Message)
}

func TestExec_Variables(t *testing.T) {
	b := NewProgramBuilder(ProgramBuilderOpts{})
	out := b.AllocRegisters(2)
	b.EmitInsn(Instruction{Op: OpVariable, P1: 2, P2: int32(out)})
	b.EmitInsn(Instruction{Op: OpVariable, P1: 5, P2: int32(out + 1)})
	b.EmitResultRow(out, 2)

	vm, err := run(t, b, nil, DS.IntValue(1), DS.StringValue("two"))
	require.NoError(t, err)
	assert.Equal(t, DS.StringValue("two"), vm.Results()[0][0])
	assert.True(t, vm.Results()[0][1].IsNull())
}

func TestExec_InsertAndSeek(t *testing.T) {
	store := DS.NewStore()
	_, err := store.CreateTable("t")
	require.NoError(t, err)

	b := NewProgramBuilder(ProgramBuilderOpts{})
	cur := b.AllocCursor(CursorTable, "t")
	key, cols, rec, out := b.AllocRegister(), b.AllocRegisters(2), b.AllocRegister(), b.AllocRegister()
	missing := b.AllocateLabel()
	b.EmitOpenWrite(cur)
	b.EmitInsn(Instruction{Op: OpNewRowid, P1: int32(cur), P2: int32(key)})
	b.EmitLoadConst(cols, DS.StringValue("10"))
	b.EmitLoadConst(cols+1, DS.StringValue("x"))
	b.EmitMakeRecord(cols, 2, rec, "DB")
	b.EmitInsn(Instruction{Op: OpInsert, P1: int32(cur), P2: int32(rec), P3: int32(key), P5: OPFLAG_NCHANGE | OPFLAG_LASTROWID})
	b.EmitJump(OpSeekRowid, cur, missing, key, nil)
	b.EmitInsn(Instruction{Op: OpColumn, P1: int32(cur), P2: 0, P3: int32(out)})
	b.EmitResultRow(out, 1)
	b.ResolveLabel(missing)

	vm, err := run(t, b, store)
	require.NoError(t, err)
	assert.Equal(t, int64(1), vm.Changes())
	assert.Equal(t, int64(1), vm.LastInsertRowid())
	require.Len(t, vm.Results(), 1)
	assert.Equal(t, DS.IntValue(10), vm.Results()[0][0], "integer affinity applied by MakeRecord")

	tbl, _ := store.Table("t")
	assert.Equal(t, 1, tbl.Len())
}

func TestExec_NoConflictAndIdxInsert(t *testing.T) {
	store := DS.NewStore()
	_, err := store.CreateTable("t")
	require.NoError(t, err)
	_, err = store.CreateIndex(DS.IndexSpec{
		Name: "t_b", Table: "t", Unique: true,
		Positions: []int{0}, Collations: []string{"nocase"}, Columns: "t.b",
	})
	require.NoError(t, err)

	build := func(rowid int64, val string) *ProgramBuilder {
		b := NewProgramBuilder(ProgramBuilderOpts{})
		ix := b.AllocCursor(CursorIndex, "t_b")
		keys, rec, out := b.AllocRegisters(2), b.AllocRegister(), b.AllocRegister()
		noConflict := b.AllocateLabel()
		b.EmitOpenWrite(ix)
		b.EmitLoadConst(keys, DS.StringValue(val))
		b.EmitLoadConst(keys+1, DS.IntValue(rowid))
		b.EmitJump(OpNoConflict, ix, noConflict, keys, 1)
		b.EmitInsn(Instruction{Op: OpIdxRowid, P1: int32(ix), P2: int32(out)})
		b.EmitResultRow(out, 1)
		b.EmitHalt(0, "")
		b.ResolveLabel(noConflict)
		b.EmitMakeRecord(keys, 2, rec, "")
		b.EmitInsn(Instruction{Op: OpIdxInsert, P1: int32(ix), P2: int32(rec)})
		return b
	}

	vm, err := run(t, build(1, "Y"), store)
	require.NoError(t, err)
	assert.Empty(t, vm.Results())

	vm, err = run(t, build(2, "y"), store)
	require.NoError(t, err)
	require.Len(t, vm.Results(), 1)
	assert.Equal(t, DS.IntValue(1), vm.Results()[0][0], "nocase key conflicts with rowid 1")
}

func TestExec_IdxInsertDuplicate(t *testing.T) {
	store := DS.NewStore()
	_, err := store.CreateTable("t")
	require.NoError(t, err)
	_, err = store.CreateIndex(DS.IndexSpec{
		Name: "t_a", Table: "t", Unique: true,
		Positions: []int{0}, Collations: []string{"binary"}, Columns: "t.a",
	})
	require.NoError(t, err)

	b := NewProgramBuilder(ProgramBuilderOpts{})
	ix := b.AllocCursor(CursorIndex, "t_a")
	keys, rec := b.AllocRegisters(2), b.AllocRegister()
	b.EmitOpenWrite(ix)
	for _, rowid := range []int64{1, 2} {
		b.EmitLoadConst(keys, DS.IntValue(5))
		b.EmitLoadConst(keys+1, DS.IntValue(rowid))
		b.EmitMakeRecord(keys, 2, rec, "")
		b.EmitInsn(Instruction{Op: OpIdxInsert, P1: int32(ix), P2: int32(rec)})
	}

	_, err = run(t, b, store)
	require.Error(t, err)
	assert.Equal(t, SVDB.SVDB_CONSTRAINT_UNIQUE, SVDB.ErrorCodeOf(err))
	assert.Contains(t, err.Error(), "UNIQUE constraint failed: t.a")
}

func TestExec_IdxDeleteRaise(t *testing.T) {
	store := DS.NewStore()
	_, err := store.CreateTable("t")
	require.NoError(t, err)
	_, err = store.CreateIndex(DS.IndexSpec{
		Name: "t_a", Table: "t", Positions: []int{0}, Collations: []string{"binary"}, Columns: "t.a",
	})
	require.NoError(t, err)

	for _, raise := range []uint16{0, OPFLAG_RAISE} {
		b := NewProgramBuilder(ProgramBuilderOpts{})
		ix := b.AllocCursor(CursorIndex, "t_a")
		keys := b.AllocRegisters(2)
		b.EmitOpenWrite(ix)
		b.EmitLoadConst(keys, DS.IntValue(5))
		b.EmitLoadConst(keys+1, DS.IntValue(1))
		b.EmitInsn(Instruction{Op: OpIdxDelete, P1: int32(ix), P2: int32(keys), P3: 2, P5: raise})

		_, err := run(t, b, store)
		if raise == 0 {
			assert.NoError(t, err)
		} else {
			assert.Error(t, err)
		}
	}
}

func TestExec_TypeCheck(t *testing.T) {
	tbl := &IS.Table{
		Name:   "t",
		Strict: true,
		Columns: []*IS.Column{
			{Name: "a", Type: "INTEGER"},
			{Name: "b", Type: "TEXT"},
		},
	}

	b := NewProgramBuilder(ProgramBuilderOpts{})
	regs := b.AllocRegisters(2)
	b.EmitLoadConst(regs, DS.StringValue("12"))
	b.EmitLoadConst(regs+1, DS.IntValue(3))
	b.EmitInsn(Instruction{Op: OpTypeCheck, P1: int32(regs), P2: 2, P4: tbl})
	b.EmitResultRow(regs, 2)
	vm, err := run(t, b, nil)
	require.NoError(t, err)
	assert.Equal(t, []DS.Value{DS.IntValue(12), DS.StringValue("3")}, vm.Results()[0])

	b = NewProgramBuilder(ProgramBuilderOpts{})
	regs = b.AllocRegisters(2)
	b.EmitLoadConst(regs, DS.StringValue("abc"))
	b.EmitInsn(Instruction{Op: OpTypeCheck, P1: int32(regs), P2: 2, P4: tbl})
	_, err = run(t, b, nil)
	require.Error(t, err)
	assert.Equal(t, SVDB.SVDB_CONSTRAINT_DATATYPE, SVDB.ErrorCodeOf(err))
	assert.Equal(t, "cannot store TEXT value in INTEGER column t.a", err.(*SVDB.Error).Message)
}

func TestExec_MustBeInt(t *testing.T) {
	b := NewProgramBuilder(ProgramBuilderOpts{})
	r := b.AllocRegister()
	b.EmitLoadConst(r, DS.StringValue("x"))
	b.EmitInsn(Instruction{Op: OpMustBeInt, P1: int32(r)})
	_, err := run(t, b, nil)
	require.Error(t, err)
	assert.Equal(t, SVDB.SVDB_MISMATCH, SVDB.ErrorCodeOf(err))
}

func TestExec_Canceled(t *testing.T) {
	b := NewProgramBuilder(ProgramBuilderOpts{})
	p, err := b.Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewVM(p, DS.NewStore()).Run(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, SVDB.SVDB_ABORT, SVDB.ErrorCodeOf(err))
}
