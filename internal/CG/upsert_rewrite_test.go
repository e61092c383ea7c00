package CG

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
)

func parseExpr(t *testing.T, sql string) QP.Expr {
	t.Helper()
	return parseInsert(t, "INSERT INTO t VALUES ("+sql+")").Values[0][0]
}

// rewriteFixture is t(id INTEGER PRIMARY KEY, a, b COLLATE NOCASE) with the
// pending row's key in r[1] and its columns in r[3], r[4] and r[5].
func rewriteFixture(t *testing.T) (*IS.Table, *Insertion) {
	t.Helper()
	db := newTestDB(t, "CREATE TABLE t (id INTEGER PRIMARY KEY, a TEXT, b TEXT COLLATE NOCASE)")
	tbl, _ := db.schema.GetTable("t")
	ins := &Insertion{KeyRegister: 1, RecordStart: 3}
	for i, col := range tbl.Columns {
		ins.ColMappings = append(ins.ColMappings, ColMapping{
			Name:         col.Name,
			ColumnIndex:  i,
			Register:     3 + i,
			Collation:    col.Collation,
			IsRowidAlias: col.IsRowidAlias,
		})
	}
	return tbl, ins
}

func TestRewriteExcluded_Column(t *testing.T) {
	_, ins := rewriteFixture(t)

	e := parseExpr(t, "excluded.b")
	RewriteExcludedInExpr(&e, ins)
	assert.Equal(t, &QP.Register{Reg: 5, Collation: "nocase"}, e)

	e = parseExpr(t, "EXCLUDED.A")
	RewriteExcludedInExpr(&e, ins)
	assert.Equal(t, &QP.Register{Reg: 4}, e)

	e = parseExpr(t, "excluded.rowid")
	RewriteExcludedInExpr(&e, ins)
	assert.Equal(t, &QP.Register{Reg: 1}, e)
}

func TestRewriteExcluded_LeavesOtherReferences(t *testing.T) {
	_, ins := rewriteFixture(t)

	e := parseExpr(t, "a || t.b || excluded.nosuch || other.a")
	RewriteExcludedInExpr(&e, ins)
	assert.Equal(t, "(((a || t.b) || excluded.nosuch) || other.a)", QP.Format(e))
}

func TestRewriteExcluded_Composite(t *testing.T) {
	_, ins := rewriteFixture(t)

	cases := []struct {
		in, want string
	}{
		{"excluded.a + 1", "(r[4] + 1)"},
		{"-excluded.a", "-r[4]"},
		{"excluded.a BETWEEN excluded.id AND 10", "r[4] BETWEEN r[3] AND 10"},
		{"CASE excluded.a WHEN 1 THEN excluded.b ELSE excluded.rowid END", "CASE r[4] WHEN 1 THEN r[5] ELSE r[1] END"},
		{"CAST(excluded.a AS INTEGER)", "CAST(r[4] AS INTEGER)"},
		{"coalesce(excluded.a, b)", "coalesce(r[4], b)"},
		{"excluded.a IN (excluded.b, 2)", "r[4] IN (r[5], 2)"},
		{"excluded.a IS NULL", "r[4] IS NULL"},
		{"excluded.a IS NOT NULL", "r[4] IS NOT NULL"},
		{"excluded.a LIKE excluded.b ESCAPE '!'", "r[4] LIKE r[5] ESCAPE '!'"},
		{"excluded.b COLLATE binary", "r[5] COLLATE binary"},
		{"(excluded.a)", "(r[4])"},
	}
	for _, c := range cases {
		e := parseExpr(t, c.in)
		RewriteExcludedInExpr(&e, ins)
		assert.Equal(t, c.want, QP.Format(e), c.in)
	}
}

func TestRewriteExcluded_Idempotent(t *testing.T) {
	_, ins := rewriteFixture(t)

	e := parseExpr(t, "excluded.a || excluded.b")
	RewriteExcludedInExpr(&e, ins)
	once := QP.Format(e)
	RewriteExcludedInExpr(&e, ins)
	assert.Equal(t, once, QP.Format(e))
	assert.Equal(t, "(r[4] || r[5])", once)
}

func TestRewriteExcluded_SubqueryBodyUntouched(t *testing.T) {
	_, ins := rewriteFixture(t)

	e := parseExpr(t, "excluded.a IN (SELECT excluded.a FROM u)")
	sel, ok := e.(*QP.InSelect)
	require.True(t, ok)
	body := sel.Select.SQL

	RewriteExcludedInExpr(&e, ins)
	sel = e.(*QP.InSelect)
	assert.Equal(t, &QP.Register{Reg: 4}, sel.Expr)
	assert.Equal(t, body, sel.Select.SQL)

	e = parseExpr(t, "(SELECT excluded.a)")
	before := QP.Format(e)
	RewriteExcludedInExpr(&e, ins)
	assert.Equal(t, before, QP.Format(e))
}

func TestRewriteTargetCols(t *testing.T) {
	tbl, _ := rewriteFixture(t)

	cases := []struct {
		in, want string
	}{
		{"a", "r[11]"},
		{"t.b", "r[12]"},
		{"T.A", "r[11]"},
		{"id", "r[7]"},
		{"t.id", "r[7]"},
		{"rowid", "r[7]"},
		{"_rowid_ + oid", "(r[7] + r[7])"},
		{"excluded.a", "excluded.a"},
		{"other.a", "other.a"},
		{"nosuch", "nosuch"},
		{"upper(a) || t.b", "(upper(r[11]) || r[12])"},
	}
	for _, c := range cases {
		e := parseExpr(t, c.in)
		RewriteTargetColsToCurrentRow(&e, tbl, 10, 7)
		assert.Equal(t, c.want, QP.Format(e), c.in)
	}

	e := parseExpr(t, "b")
	RewriteTargetColsToCurrentRow(&e, tbl, 10, 7)
	assert.Equal(t, &QP.Register{Reg: 12, Collation: "nocase"}, e)
}

func TestRewriteExcludedThenTarget(t *testing.T) {
	tbl, ins := rewriteFixture(t)

	e := parseExpr(t, "a || excluded.a")
	RewriteExcludedInExpr(&e, ins)
	RewriteTargetColsToCurrentRow(&e, tbl, 10, 7)
	assert.Equal(t, "(r[11] || r[4])", QP.Format(e))
}

func TestRewriteTargetCols_Idempotent(t *testing.T) {
	tbl, _ := rewriteFixture(t)

	e := parseExpr(t, "CASE WHEN t.a BETWEEN b AND rowid THEN a LIKE b ESCAPE '!' ELSE cast(id AS TEXT) END")
	RewriteTargetColsToCurrentRow(&e, tbl, 10, 7)
	once := QP.CloneExpr(e)
	RewriteTargetColsToCurrentRow(&e, tbl, 10, 7)
	assert.Equal(t, once, e)

	got := QP.Format(e)
	assert.Contains(t, got, "CASE WHEN r[11] BETWEEN r[12] AND r[7]")
	assert.Contains(t, got, "r[11] LIKE r[12] ESCAPE '!'")
	assert.Contains(t, got, "CAST(r[7] AS TEXT)")
}
