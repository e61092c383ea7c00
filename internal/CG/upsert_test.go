package CG

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
)

func upsertOf(t *testing.T, target string) *QP.Upsert {
	t.Helper()
	ins := parseInsert(t, "INSERT INTO t VALUES (1) ON CONFLICT "+target+" DO UPDATE SET a = 1")
	require.Len(t, ins.Upserts, 1)
	return ins.Upserts[0]
}

func tableAndIndex(t *testing.T, db *testDB, index string) (*IS.Table, *IS.Index) {
	t.Helper()
	tbl, ok := db.schema.GetTable("t")
	require.True(t, ok)
	idx, err := db.schema.GetIndex("t", index)
	require.NoError(t, err)
	return tbl, idx
}

func TestExtractTargetKey(t *testing.T) {
	cases := []struct {
		target string
		want   ConflictTarget
		ok     bool
	}{
		{"(a)", ConflictTarget{ColName: "a"}, true},
		{"(A)", ConflictTarget{ColName: "a"}, true},
		{"(t.a)", ConflictTarget{ColName: "a"}, true},
		{"(main.t.a)", ConflictTarget{ColName: "a"}, true},
		{"((a))", ConflictTarget{ColName: "a"}, true},
		{"(a COLLATE NOCASE)", ConflictTarget{ColName: "a", Collate: "nocase"}, true},
		{"(a COLLATE binary COLLATE rtrim)", ConflictTarget{ColName: "a", Collate: "rtrim"}, true},
		{"(lower(a))", ConflictTarget{}, false},
		{"(a + 1)", ConflictTarget{}, false},
	}
	for _, c := range cases {
		u := upsertOf(t, c.target)
		got, ok := extractTargetKey(u.Index.Targets[0].Expr)
		assert.Equal(t, c.ok, ok, c.target)
		assert.Equal(t, c.want, got, c.target)
	}
}

func TestUpsertMatchesIndex_OrderInsensitive(t *testing.T) {
	db := newTestDB(t, "CREATE TABLE t (a, b, c, UNIQUE (a, b))")
	tbl, idx := tableAndIndex(t, db, "sqlvibe_autoindex_t_1")

	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(a, b)"), idx, tbl))
	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(b, a)"), idx, tbl))
	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(B, t.a)"), idx, tbl))
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(a)"), idx, tbl), "too few terms")
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(a, b, c)"), idx, tbl), "too many terms")
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(a, a)"), idx, tbl), "duplicate term")
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(a, c)"), idx, tbl))
}

func TestUpsertMatchesIndex_Collation(t *testing.T) {
	db := newTestDB(t, `
		CREATE TABLE t (a TEXT COLLATE NOCASE, b TEXT, UNIQUE (a));
		CREATE UNIQUE INDEX ib ON t (b COLLATE rtrim);
	`)
	tbl, ia := tableAndIndex(t, db, "sqlvibe_autoindex_t_1")
	_, ib := tableAndIndex(t, db, "ib")

	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(a)"), ia, tbl), "no COLLATE matches any collation")
	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(a COLLATE nocase)"), ia, tbl))
	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(a COLLATE NOCASE)"), ia, tbl))
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(a COLLATE binary)"), ia, tbl))

	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(b COLLATE rtrim)"), ib, tbl))
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(b COLLATE binary)"), ib, tbl), "index collation overrides the column's")
}

func TestUpsertMatchesIndex_SameColumnTwoCollations(t *testing.T) {
	db := newTestDB(t, "CREATE TABLE t (a TEXT, UNIQUE (a COLLATE nocase, a COLLATE binary))")
	tbl, idx := tableAndIndex(t, db, "sqlvibe_autoindex_t_1")

	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(a COLLATE binary, a COLLATE nocase)"), idx, tbl))
	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(a, a)"), idx, tbl))
	assert.True(t, UpsertMatchesIndex(upsertOf(t, "(a COLLATE nocase, a)"), idx, tbl))
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(a COLLATE nocase, a COLLATE nocase)"), idx, tbl))
}

func TestUpsertMatchesIndex_NonUniqueAndExpressions(t *testing.T) {
	db := newTestDB(t, `
		CREATE TABLE t (a, b);
		CREATE INDEX ia ON t (a);
		CREATE UNIQUE INDEX ib ON t (b);
	`)
	tbl, ia := tableAndIndex(t, db, "ia")
	_, ib := tableAndIndex(t, db, "ib")

	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(a)"), ia, tbl), "non-unique index")
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(lower(b))"), ib, tbl), "expression term")
	assert.False(t, UpsertMatchesIndex(upsertOf(t, "(b + 0)"), ib, tbl), "expression term")
}

func TestUpsertOmittedTargetMatchesEverything(t *testing.T) {
	db := newTestDB(t, "CREATE TABLE t (a, b UNIQUE); CREATE INDEX ia ON t (a)")
	tbl, ib := tableAndIndex(t, db, "sqlvibe_autoindex_t_1")
	_, ia := tableAndIndex(t, db, "ia")

	ins := parseInsert(t, "INSERT INTO t VALUES (1, 2) ON CONFLICT DO UPDATE SET a = 1")
	u := ins.Upserts[0]
	require.Nil(t, u.Index)
	assert.True(t, UpsertMatchesPK(u, tbl))
	assert.True(t, UpsertMatchesIndex(u, ib, tbl))
	assert.True(t, UpsertMatchesIndex(u, ia, tbl))
}

func TestUpsertMatchesPK(t *testing.T) {
	db := newTestDB(t, `
		CREATE TABLE t (id INTEGER PRIMARY KEY, a);
		CREATE TABLE u (a, b);
		CREATE TABLE v (a TEXT, b TEXT, PRIMARY KEY (a, b));
	`)
	tt, _ := db.schema.GetTable("t")
	tu, _ := db.schema.GetTable("u")
	tv, _ := db.schema.GetTable("v")

	assert.True(t, UpsertMatchesPK(upsertOf(t, "(id)"), tt))
	assert.True(t, UpsertMatchesPK(upsertOf(t, "(ID COLLATE nocase)"), tt))
	assert.False(t, UpsertMatchesPK(upsertOf(t, "(a)"), tt))
	assert.False(t, UpsertMatchesPK(upsertOf(t, "(id, a)"), tt))

	assert.True(t, UpsertMatchesPK(upsertOf(t, "(rowid)"), tu))
	assert.True(t, upsertMatchesRowid(upsertOf(t, "(rowid)"), tu))

	// A composite key is only addressed through its index.
	assert.True(t, UpsertMatchesPK(upsertOf(t, "(a)"), tv))
	assert.False(t, upsertMatchesRowid(upsertOf(t, "(a)"), tv))
	pk, err := db.schema.GetIndex("v", "sqlvibe_autoindex_v_1")
	require.NoError(t, err)
	assert.False(t, upsertMatchesConstraint(upsertOf(t, "(a)"), pk, tv))
	assert.True(t, upsertMatchesConstraint(upsertOf(t, "(b, a)"), pk, tv))
}

func TestUpsertMatchesConstraint_TextPrimaryKey(t *testing.T) {
	db := newTestDB(t, "CREATE TABLE t (k TEXT PRIMARY KEY, v)")
	tbl, pk := tableAndIndex(t, db, "sqlvibe_autoindex_t_1")
	require.True(t, pk.PrimaryKey)

	assert.False(t, upsertMatchesRowid(upsertOf(t, "(k)"), tbl))
	assert.True(t, upsertMatchesConstraint(upsertOf(t, "(k)"), pk, tbl))
	assert.True(t, upsertMatchesAny(upsertOf(t, "(k)"), tbl, db.schema.TableIndexes("t")))
	assert.False(t, upsertMatchesAny(upsertOf(t, "(v)"), tbl, db.schema.TableIndexes("t")))
}
