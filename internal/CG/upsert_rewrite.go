package CG

import (
	"strings"

	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
)

const excludedTable = "excluded"

// rewriteLeaves walks every operand slot of a composite expression and
// calls leaf on each node that is not itself walked. leaf returns the
// replacement for the slot and whether to replace it. Subquery bodies are
// never entered; only the left-hand side of IN (SELECT ...) and IN table.
func rewriteLeaves(e *QP.Expr, leaf func(QP.Expr) (QP.Expr, bool)) {
	if e == nil || *e == nil {
		return
	}
	switch n := (*e).(type) {
	case *QP.Parenthesized:
		for i := range n.Exprs {
			rewriteLeaves(&n.Exprs[i], leaf)
		}
	case *QP.Collate:
		rewriteLeaves(&n.Expr, leaf)
	case *QP.Between:
		rewriteLeaves(&n.Expr, leaf)
		rewriteLeaves(&n.Low, leaf)
		rewriteLeaves(&n.High, leaf)
	case *QP.BinaryExpr:
		rewriteLeaves(&n.Left, leaf)
		rewriteLeaves(&n.Right, leaf)
	case *QP.UnaryExpr:
		rewriteLeaves(&n.Expr, leaf)
	case *QP.CaseExpr:
		rewriteLeaves(&n.Operand, leaf)
		for i := range n.Whens {
			rewriteLeaves(&n.Whens[i].Condition, leaf)
			rewriteLeaves(&n.Whens[i].Result, leaf)
		}
		rewriteLeaves(&n.Else, leaf)
	case *QP.CastExpr:
		rewriteLeaves(&n.Expr, leaf)
	case *QP.FuncCall:
		for i := range n.Args {
			rewriteLeaves(&n.Args[i], leaf)
		}
		for i := range n.OrderBy {
			rewriteLeaves(&n.OrderBy[i].Expr, leaf)
		}
		rewriteLeaves(&n.Filter, leaf)
	case *QP.InList:
		rewriteLeaves(&n.Expr, leaf)
		for i := range n.List {
			rewriteLeaves(&n.List[i], leaf)
		}
	case *QP.InSelect:
		rewriteLeaves(&n.Expr, leaf)
	case *QP.InTable:
		rewriteLeaves(&n.Expr, leaf)
	case *QP.IsNull:
		rewriteLeaves(&n.Expr, leaf)
	case *QP.NotNull:
		rewriteLeaves(&n.Expr, leaf)
	case *QP.LikeExpr:
		rewriteLeaves(&n.Expr, leaf)
		rewriteLeaves(&n.Pattern, leaf)
		rewriteLeaves(&n.Escape, leaf)
	default:
		if r, ok := leaf(n); ok {
			*e = r
		}
	}
}

// RewriteExcludedInExpr replaces excluded.col references with the
// registers holding the row that was about to be inserted.
func RewriteExcludedInExpr(e *QP.Expr, ins *Insertion) {
	rewriteLeaves(e, func(n QP.Expr) (QP.Expr, bool) {
		q, ok := n.(*QP.Qualified)
		if !ok || !strings.EqualFold(q.Table, excludedTable) {
			return nil, false
		}
		if m, ok := ins.GetColMappingByName(q.Column); ok {
			return &QP.Register{Reg: m.Register, Collation: m.Collation}, true
		}
		if QP.IsRowidName(q.Column) {
			return &QP.Register{Reg: ins.KeyRegister}, true
		}
		return nil, false
	})
}

// RewriteTargetColsToCurrentRow replaces references to the conflicting
// row (bare names, names qualified by the table, and the rowid) with the
// registers of the row image starting at currentStart. The rowid and the
// INTEGER PRIMARY KEY column resolve to rowidReg.
func RewriteTargetColsToCurrentRow(e *QP.Expr, table *IS.Table, currentStart, rowidReg int) {
	colReg := func(name string) (QP.Expr, bool) {
		if i, col, ok := table.GetColumnByName(name); ok {
			if col.IsRowidAlias {
				return &QP.Register{Reg: rowidReg}, true
			}
			return &QP.Register{Reg: currentStart + i, Collation: col.Collation}, true
		}
		if table.IsRowidRef(name) {
			return &QP.Register{Reg: rowidReg}, true
		}
		return nil, false
	}
	rewriteLeaves(e, func(n QP.Expr) (QP.Expr, bool) {
		switch n := n.(type) {
		case *QP.Id:
			return colReg(n.Name)
		case *QP.Qualified:
			if strings.EqualFold(n.Table, excludedTable) || !strings.EqualFold(n.Table, table.Name) {
				return nil, false
			}
			return colReg(n.Column)
		case *QP.RowIDRef:
			return &QP.Register{Reg: rowidReg}, true
		}
		return nil, false
	})
}
