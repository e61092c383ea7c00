package CG

import (
	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/VM"
)

// Options configure code generation.
type Options struct {
	CaptureDataChanges VM.CaptureDataChangesMode
	CDCTable           string
}

// Compiler turns parsed statements into VM programs against a schema.
type Compiler struct {
	schema *IS.Schema
	opts   Options
}

func NewCompiler(schema *IS.Schema, opts Options) *Compiler {
	return &Compiler{schema: schema, opts: opts}
}

func (c *Compiler) newBuilder() *VM.ProgramBuilder {
	return VM.NewProgramBuilder(VM.ProgramBuilderOpts{
		CaptureDataChanges: c.opts.CaptureDataChanges,
		CDCTable:           c.opts.CDCTable,
	})
}
