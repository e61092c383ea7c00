package VM

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/DS"
)

// ctxCheckInterval is how many instructions run between context checks.
const ctxCheckInterval = 1024

// VM executes a Program against a DS.Store.
type VM struct {
	program   *Program
	store     *DS.Store
	pc        int
	registers []DS.Value
	cursors   *CursorArray
	params    []DS.Value
	results   [][]DS.Value
	changes   int64
	lastRowid int64
}

func NewVM(program *Program, store *DS.Store) *VM {
	return &VM{
		program:   program,
		store:     store,
		registers: make([]DS.Value, program.NumRegs+1),
		cursors:   NewCursorArray(len(program.Cursors)),
	}
}

// Reset prepares the VM for another run of the same program.
func (vm *VM) Reset() {
	vm.pc = 0
	for i := range vm.registers {
		vm.registers[i] = DS.NullValue()
	}
	vm.cursors = NewCursorArray(len(vm.program.Cursors))
	vm.params = nil
	vm.results = nil
	vm.changes = 0
}

// Run executes the program from the start with the given parameters.
func (vm *VM) Run(ctx context.Context, params []DS.Value) error {
	vm.Reset()
	vm.params = params
	return vm.Exec(ctx)
}

func (vm *VM) Results() [][]DS.Value { return vm.results }

// Changes is the number of rows inserted or updated by the run.
func (vm *VM) Changes() int64 { return vm.changes }

func (vm *VM) LastInsertRowid() int64 { return vm.lastRowid }

func (vm *VM) Register(reg int) DS.Value { return vm.registers[reg] }

// GetInstruction returns the instruction at pc and advances pc.
func (vm *VM) GetInstruction() Instruction {
	inst := vm.program.Instructions[vm.pc]
	vm.pc++
	return inst
}

func (vm *VM) checkRegister(reg int32) error {
	if reg <= 0 || int(reg) >= len(vm.registers) {
		return errors.AssertionFailedf("register %d out of range at address %d", reg, vm.pc-1)
	}
	return nil
}

func (vm *VM) jump(target int32) {
	vm.pc = int(target)
}
