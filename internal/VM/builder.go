package VM

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/SF/util"
)

// BranchOffset names a jump target that may not have an address yet.
// Jump instructions carry it in P2 until Build resolves it.
type BranchOffset int32

// encode stores a label in P2. Labels are negative so they cannot be
// mistaken for addresses.
func (l BranchOffset) encode() int32 { return -int32(l) - 1 }

func decodeLabel(p2 int32) (BranchOffset, bool) {
	if p2 >= 0 {
		return 0, false
	}
	return BranchOffset(-p2 - 1), true
}

// CursorSpec describes a cursor the program opens.
type CursorSpec struct {
	Kind int32
	Name string
}

type ProgramBuilderOpts struct {
	CaptureDataChanges CaptureDataChangesMode
	CDCTable           string
}

// ProgramBuilder assembles a Program. Registers and cursors are handed out
// monotonically and never reused. Instructions emitted with EmitConstant
// run once, before the body, in a section reached from Init.
type ProgramBuilder struct {
	insns     []Instruction
	constants []Instruction
	labels    []int
	cursors   []CursorSpec
	nextReg   int
	numParams int
	columns   []string
	opts      ProgramBuilderOpts
}

func NewProgramBuilder(opts ProgramBuilderOpts) *ProgramBuilder {
	b := &ProgramBuilder{nextReg: 1, opts: opts}
	b.insns = append(b.insns, Instruction{Op: OpInit})
	return b
}

func (b *ProgramBuilder) AllocRegister() int {
	return b.AllocRegisters(1)
}

// AllocRegisters reserves n consecutive registers and returns the first.
func (b *ProgramBuilder) AllocRegisters(n int) int {
	util.Assertf(n >= 0, "allocating %d registers", n)
	start := b.nextReg
	b.nextReg += n
	return start
}

func (b *ProgramBuilder) AllocCursor(kind int32, name string) int {
	b.cursors = append(b.cursors, CursorSpec{Kind: kind, Name: name})
	return len(b.cursors) - 1
}

// Cursor returns the id of an already allocated cursor on name.
func (b *ProgramBuilder) Cursor(kind int32, name string) (int, bool) {
	for i, c := range b.cursors {
		if c.Kind == kind && c.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (b *ProgramBuilder) EmitInsn(insn Instruction) {
	b.insns = append(b.insns, insn)
}

// EmitConstant appends to the constant section.
func (b *ProgramBuilder) EmitConstant(insn Instruction) {
	b.constants = append(b.constants, insn)
}

// Offset is the address the next body instruction will get.
func (b *ProgramBuilder) Offset() int { return len(b.insns) }

func (b *ProgramBuilder) AllocateLabel() BranchOffset {
	b.labels = append(b.labels, -1)
	return BranchOffset(len(b.labels) - 1)
}

// ResolveLabel binds l to the next emitted instruction.
func (b *ProgramBuilder) ResolveLabel(l BranchOffset) {
	util.Assertf(int(l) >= 0 && int(l) < len(b.labels), "resolving unallocated %s", l)
	util.Assertf(b.labels[l] < 0, "%s resolved twice", l)
	b.labels[l] = len(b.insns)
}

func (b *ProgramBuilder) CaptureDataChangesMode() CaptureDataChangesMode {
	return b.opts.CaptureDataChanges
}

func (b *ProgramBuilder) CDCTable() string { return b.opts.CDCTable }

// SetResultColumns names the columns of the rows ResultRow produces.
func (b *ProgramBuilder) SetResultColumns(names []string) {
	b.columns = names
}

// NoteParam records that parameter idx is referenced.
func (b *ProgramBuilder) NoteParam(idx int) {
	if idx > b.numParams {
		b.numParams = idx
	}
}

// Build lays out the program: Init, the body, a final Halt, then the
// constant section which jumps back to the first body instruction.
func (b *ProgramBuilder) Build() (*Program, error) {
	insns := make([]Instruction, 0, len(b.insns)+len(b.constants)+2)
	insns = append(insns, b.insns...)
	insns = append(insns, Instruction{Op: OpHalt})

	if len(b.constants) > 0 {
		insns[0].P2 = int32(len(insns))
		insns = append(insns, b.constants...)
		insns = append(insns, Instruction{Op: OpGoto, P2: 1})
	} else {
		insns[0].P2 = 1
	}

	for addr := range insns {
		insn := &insns[addr]
		if !insn.Op.IsJump() {
			continue
		}
		l, ok := decodeLabel(insn.P2)
		if !ok {
			continue
		}
		if int(l) >= len(b.labels) || b.labels[l] < 0 {
			return nil, errors.AssertionFailedf("unresolved label %d at address %d (%s)", l, addr, insn.Op)
		}
		insn.P2 = int32(b.labels[l])
	}

	return &Program{
		Instructions:  insns,
		NumRegs:       b.nextReg,
		Cursors:       append([]CursorSpec(nil), b.cursors...),
		NumParams:     b.numParams,
		ResultColumns: b.columns,
	}, nil
}

// Emit helpers for the common shapes.

func (b *ProgramBuilder) EmitGoto(target BranchOffset) {
	b.EmitInsn(Instruction{Op: OpGoto, P2: target.encode()})
}

// EmitIfNot jumps when reg is false, and also when it is NULL if
// jumpIfNull is set.
func (b *ProgramBuilder) EmitIfNot(reg int, target BranchOffset, jumpIfNull bool) {
	b.EmitInsn(Instruction{Op: OpIfNot, P1: int32(reg), P2: target.encode(), P3: boolP(jumpIfNull)})
}

func (b *ProgramBuilder) EmitIf(reg int, target BranchOffset, jumpIfNull bool) {
	b.EmitInsn(Instruction{Op: OpIf, P1: int32(reg), P2: target.encode(), P3: boolP(jumpIfNull)})
}

// EmitJump emits a cursor jump (NotExists, SeekRowid, NoConflict).
func (b *ProgramBuilder) EmitJump(op OpCode, cursor int, target BranchOffset, p3 int, p4 interface{}) {
	b.EmitInsn(Instruction{Op: op, P1: int32(cursor), P2: target.encode(), P3: int32(p3), P4: p4})
}

func (b *ProgramBuilder) EmitCopy(src, dst, count int) {
	if count <= 0 {
		return
	}
	b.checkRange(src, count)
	b.checkRange(dst, count)
	b.EmitInsn(Instruction{Op: OpCopy, P1: int32(src), P2: int32(dst), P3: int32(count - 1)})
}

func (b *ProgramBuilder) EmitNull(dst int) {
	b.EmitInsn(Instruction{Op: OpNull, P2: int32(dst)})
}

func (b *ProgramBuilder) EmitLoadConst(dst int, v DS.Value) {
	b.EmitInsn(Instruction{Op: OpLoadConst, P2: int32(dst), P4: v})
}

// EmitHalt stops the program with an error when code is non-zero.
func (b *ProgramBuilder) EmitHalt(code int32, msg string) {
	b.EmitInsn(Instruction{Op: OpHalt, P1: code, P4: msg})
}

func (b *ProgramBuilder) EmitHaltIfNull(code int32, reg int, msg string) {
	b.EmitInsn(Instruction{Op: OpHaltIfNull, P1: code, P3: int32(reg), P4: msg})
}

func (b *ProgramBuilder) EmitMakeRecord(start, count, dst int, affinity string) {
	b.checkRange(start, count)
	b.EmitInsn(Instruction{Op: OpMakeRecord, P1: int32(start), P2: int32(count), P3: int32(dst), P4: affinity})
}

func (b *ProgramBuilder) EmitResultRow(start, count int) {
	b.checkRange(start, count)
	b.EmitInsn(Instruction{Op: OpResultRow, P1: int32(start), P2: int32(count)})
}

// EmitOpenWrite opens cursor on its table or index.
func (b *ProgramBuilder) EmitOpenWrite(cursor int) {
	spec := b.cursors[cursor]
	b.EmitInsn(Instruction{Op: OpOpenWrite, P1: int32(cursor), P3: spec.Kind, P4: spec.Name})
}

// checkRange asserts that registers [start, start+count) were allocated.
func (b *ProgramBuilder) checkRange(start, count int) {
	util.Assertf(start >= 1 && start+count <= b.nextReg,
		"registers %d..%d outside the %d allocated", start, start+count-1, b.nextReg-1)
}

func boolP(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

func (l BranchOffset) String() string { return fmt.Sprintf("label%d", int32(l)) }
