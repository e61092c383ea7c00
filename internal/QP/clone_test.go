package QP

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneExprIsDeep(t *testing.T) {
	stmt := parseInsertSQL(t, "INSERT INTO t VALUES (CASE WHEN a > 1 THEN lower(b) END || x'01')")
	orig := stmt.Values[0][0]
	clone := CloneExpr(orig)
	require.Equal(t, orig, clone)

	// Mutating the clone leaves the original untouched.
	bin := clone.(*BinaryExpr)
	bin.Right.(*Literal).Value.([]byte)[0] = 0xff
	bin.Left.(*CaseExpr).Whens[0].Condition = &Register{Reg: 3}
	require.Equal(t, "(CASE WHEN (a > 1) THEN lower(b) END || X'01')", Format(orig))
	require.Equal(t, "(CASE WHEN r[3] THEN lower(b) END || X'FF')", Format(clone))
}

func TestCloneUpsert(t *testing.T) {
	stmt := parseInsertSQL(t, "INSERT INTO t VALUES (1) ON CONFLICT (a) WHERE b DO UPDATE SET (a, b) = (1, 2) WHERE a")
	orig := stmt.Upserts[0]
	clone := CloneUpsert(orig)
	require.Equal(t, orig, clone)

	clone.Do.Sets[0].ColNames[0] = "z"
	clone.Index.Targets[0].Expr = &Register{Reg: 1}
	require.Equal(t, []string{"a", "b"}, orig.Do.Sets[0].ColNames)
	require.Equal(t, "a", Format(orig.Index.Targets[0].Expr))
	require.Nil(t, CloneUpsert(nil))
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "INSERT INTO t VALUES ('a  b', 1)", NormalizeQuery("  INSERT  INTO\tt\nVALUES ('a  b',   1);; "))
	require.NotEqual(t, NormalizeQuery(`INSERT INTO "a  b" VALUES (1)`), NormalizeQuery(`INSERT INTO "a b" VALUES (1)`))
	require.Equal(t, "INSERT INTO `x  y` (\"c  \"\"d\", [e  f]) VALUES (1)",
		NormalizeQuery("INSERT INTO `x  y`\n(\"c  \"\"d\",  [e  f])  VALUES (1)"))
	require.Equal(t, "abc", NormalizeIdent("AbC"))
	require.True(t, IsRowidName("_ROWID_"))
	require.True(t, IsRowidName("oid"))
	require.False(t, IsRowidName("id"))
}
