package VM

// Instruction is one VM operation. Register operands are 1-based; P4 holds
// an operand that does not fit an integer (constant, name, collation,
// table descriptor) and P5 holds flags.
type Instruction struct {
	Op      OpCode
	P1      int32
	P2      int32
	P3      int32
	P4      interface{}
	P5      uint16
	Comment string
}

func NewInstruction(op OpCode) Instruction {
	return Instruction{Op: op}
}

func (i *Instruction) SetP1(p1 int32) *Instruction {
	i.P1 = p1
	return i
}

func (i *Instruction) SetP2(p2 int32) *Instruction {
	i.P2 = p2
	return i
}

func (i *Instruction) SetP3(p3 int32) *Instruction {
	i.P3 = p3
	return i
}

func (i *Instruction) SetP4(p4 interface{}) *Instruction {
	i.P4 = p4
	return i
}

func (i *Instruction) SetP5(p5 uint16) *Instruction {
	i.P5 = p5
	return i
}

func (i *Instruction) SetComment(c string) *Instruction {
	i.Comment = c
	return i
}
