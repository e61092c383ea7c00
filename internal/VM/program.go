package VM

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
)

// Program is a built instruction sequence. Address 0 is always Init.
type Program struct {
	Instructions  []Instruction
	NumRegs       int
	NumParams     int
	Cursors       []CursorSpec
	ResultColumns []string
}

// InList is the P4 operand of OpIn.
type InList struct {
	Count     int
	Collation string
}

func (p *Program) Len() int { return len(p.Instructions) }

func (p *Program) GetInstruction(addr int) Instruction {
	return p.Instructions[addr]
}

// Explain writes an EXPLAIN listing of the program.
func (p *Program) Explain(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"addr", "opcode", "p1", "p2", "p3", "p4", "p5", "comment"})
	for addr, insn := range p.Instructions {
		table.Append([]string{
			strconv.Itoa(addr),
			insn.Op.String(),
			strconv.Itoa(int(insn.P1)),
			strconv.Itoa(int(insn.P2)),
			strconv.Itoa(int(insn.P3)),
			formatP4(insn.P4),
			fmt.Sprintf("%02x", insn.P5),
			insn.Comment,
		})
	}
	table.Render()
}

func formatP4(p4 interface{}) string {
	switch v := p4.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case DS.Value:
		if v.Type == DS.TypeString {
			return strconv.Quote(v.Str)
		}
		return v.String()
	case *IS.Table:
		return v.Name
	case InList:
		if v.Collation != "" {
			return fmt.Sprintf("%d %s", v.Count, v.Collation)
		}
		return strconv.Itoa(v.Count)
	}
	return fmt.Sprintf("%v", p4)
}
