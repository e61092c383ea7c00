package CG

import (
	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// SetPair is one normalized DO UPDATE assignment.
type SetPair struct {
	Col  int
	Expr QP.Expr
}

// CollectSetClausesForUpsert flattens the SET items of a DO UPDATE into
// one assignment per column, resolving excluded.* against ins. A column
// assigned twice keeps its first position and its last value.
func CollectSetClausesForUpsert(table *IS.Table, sets []QP.Set, ins *Insertion) ([]SetPair, error) {
	var out []SetPair
	for _, set := range sets {
		values := []QP.Expr{set.Expr}
		if p, ok := set.Expr.(*QP.Parenthesized); ok && len(set.ColNames) > 1 {
			values = p.Exprs
		}
		if len(set.ColNames) != len(values) {
			return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "%d columns assigned %d values", len(set.ColNames), len(values))
		}
		for i, name := range set.ColNames {
			e := values[i]
			RewriteExcludedInExpr(&e, ins)
			idx, _, ok := table.GetColumnByName(name)
			if !ok {
				return nil, noSuchColumn(name)
			}
			replaced := false
			for j := range out {
				if out[j].Col == idx {
					out[j].Expr = e
					replaced = true
					break
				}
			}
			if !replaced {
				out = append(out, SetPair{Col: idx, Expr: e})
			}
		}
	}
	return out, nil
}
