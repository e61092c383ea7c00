package CG

import (
	"strings"

	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
)

// ConflictTarget is one ON CONFLICT target term reduced to a column name
// and the collation written on it, if any.
type ConflictTarget struct {
	ColName string
	Collate string
}

// KeySig identifies an index column for target matching.
type KeySig struct {
	Name string
	Coll string
}

// extractTargetKey reduces a target term to a column reference. Anything
// that is not a (possibly qualified, parenthesized or collated) column
// name yields false.
func extractTargetKey(e QP.Expr) (ConflictTarget, bool) {
	switch e := e.(type) {
	case *QP.Id:
		return ConflictTarget{ColName: QP.NormalizeIdent(e.Name)}, true
	case *QP.Qualified:
		return ConflictTarget{ColName: QP.NormalizeIdent(e.Column)}, true
	case *QP.DoublyQualified:
		return ConflictTarget{ColName: QP.NormalizeIdent(e.Column)}, true
	case *QP.Parenthesized:
		if len(e.Exprs) == 1 {
			return extractTargetKey(e.Exprs[0])
		}
	case *QP.Collate:
		tk, ok := extractTargetKey(e.Expr)
		if !ok {
			return ConflictTarget{}, false
		}
		tk.Collate = strings.ToLower(e.Collation)
		return tk, true
	}
	return ConflictTarget{}, false
}

// UpsertMatchesPK reports whether the clause handles a primary key
// conflict. An omitted target matches everything.
func UpsertMatchesPK(upsert *QP.Upsert, table *IS.Table) bool {
	if upsert.Index == nil {
		return true
	}
	if len(upsert.Index.Targets) != 1 {
		return false
	}
	tk, ok := extractTargetKey(upsert.Index.Targets[0].Expr)
	if !ok {
		return false
	}
	return strings.EqualFold(tk.ColName, table.PrimaryKeyName())
}

// UpsertMatchesIndex reports whether the clause's target names exactly the
// columns of a unique index, in any order. A term with COLLATE must match
// the column's effective collation; a term without one matches the column
// whatever its collation.
func UpsertMatchesIndex(upsert *QP.Upsert, index *IS.Index, table *IS.Table) bool {
	if upsert.Index == nil {
		return true
	}
	targets := upsert.Index.Targets
	if !index.Unique || len(targets) != len(index.Columns) {
		return false
	}

	// sigs keeps index order so a collation-less term always consumes the
	// same entry.
	sigs := make([]KeySig, 0, len(index.Columns))
	need := make(map[KeySig]int, len(index.Columns))
	for i, ic := range index.Columns {
		sig := KeySig{Name: QP.NormalizeIdent(ic.Name), Coll: index.EffectiveCollation(i, table)}
		if need[sig] == 0 {
			sigs = append(sigs, sig)
		}
		need[sig]++
	}

	for _, t := range targets {
		tk, ok := extractTargetKey(t.Expr)
		if !ok {
			return false
		}
		matched := false
		if tk.Collate != "" {
			sig := KeySig{Name: tk.ColName, Coll: tk.Collate}
			if need[sig] > 0 {
				consume(need, sig)
				matched = true
			}
		} else {
			for _, sig := range sigs {
				if need[sig] > 0 && strings.EqualFold(sig.Name, tk.ColName) {
					consume(need, sig)
					matched = true
					break
				}
			}
		}
		if !matched {
			return false
		}
	}
	return len(need) == 0
}

func consume(need map[KeySig]int, sig KeySig) {
	need[sig]--
	if need[sig] == 0 {
		delete(need, sig)
	}
}

// rowidIsPrimaryKey reports whether a rowid conflict is the table's
// primary key conflict: the table has an INTEGER PRIMARY KEY or no primary
// key at all.
func rowidIsPrimaryKey(table *IS.Table) bool {
	if _, _, ok := table.RowidAlias(); ok {
		return true
	}
	for _, c := range table.Columns {
		if c.PrimaryKey {
			return false
		}
	}
	return true
}

// upsertMatchesRowid reports whether the clause handles a conflict on the
// row's key.
func upsertMatchesRowid(upsert *QP.Upsert, table *IS.Table) bool {
	if upsert.Index == nil {
		return true
	}
	return rowidIsPrimaryKey(table) && UpsertMatchesPK(upsert, table)
}

// upsertMatchesConstraint reports whether the clause handles a conflict on
// index, which may be the table's primary key index.
func upsertMatchesConstraint(upsert *QP.Upsert, index *IS.Index, table *IS.Table) bool {
	if UpsertMatchesIndex(upsert, index, table) {
		return true
	}
	return index.PrimaryKey && len(index.Columns) == 1 && UpsertMatchesPK(upsert, table)
}

// upsertMatchesAny reports whether an explicit target names some
// constraint of the table.
func upsertMatchesAny(upsert *QP.Upsert, table *IS.Table, indexes []*IS.Index) bool {
	if upsertMatchesRowid(upsert, table) {
		return true
	}
	for _, idx := range indexes {
		if upsertMatchesConstraint(upsert, idx, table) {
			return true
		}
	}
	return false
}
