package CG

import (
	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
	"github.com/sqlvibe/upsertc/internal/VM"
)

// ReturningRow locates the row a RETURNING clause reads: its key and a
// register range holding every column in table order.
type ReturningRow struct {
	RowidReg int
	ColStart int
	NumCols  int
}

// expandReturning replaces * with one column reference per table column.
func expandReturning(table *IS.Table, cols []QP.ResultColumn) []QP.ResultColumn {
	var out []QP.ResultColumn
	for _, rc := range cols {
		if !rc.Star {
			out = append(out, rc)
			continue
		}
		for _, c := range table.Columns {
			out = append(out, QP.ResultColumn{Expr: &QP.Id{Name: c.Name}, Alias: c.Name})
		}
	}
	return out
}

// ReturningColumnNames names the output columns of a RETURNING clause: the
// alias, the column name for a column reference, or the expression text.
func ReturningColumnNames(table *IS.Table, cols []QP.ResultColumn) []string {
	cols = expandReturning(table, cols)
	names := make([]string, len(cols))
	for i, rc := range cols {
		switch e := rc.Expr.(type) {
		case *QP.Id:
			names[i] = e.Name
		case *QP.Qualified:
			names[i] = e.Column
		default:
			names[i] = QP.Format(rc.Expr)
		}
		if rc.Alias != "" {
			names[i] = rc.Alias
		}
	}
	return names
}

// EmitReturning evaluates the RETURNING expressions against row and emits
// one result row.
func EmitReturning(b *VM.ProgramBuilder, table *IS.Table, cols []QP.ResultColumn, row ReturningRow) error {
	cols = expandReturning(table, cols)
	if len(cols) == 0 {
		return nil
	}
	out := b.AllocRegisters(len(cols))
	for i, rc := range cols {
		e := QP.CloneExpr(rc.Expr)
		RewriteTargetColsToCurrentRow(&e, table, row.ColStart, row.RowidReg)
		if err := TranslateExpr(b, e, out+i); err != nil {
			return err
		}
	}
	b.EmitResultRow(out, len(cols))
	return nil
}
