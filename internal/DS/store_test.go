package DS

import (
	"testing"

	"github.com/stretchr/testify/require"

	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

func indexRecord(vals ...Value) []byte {
	return EncodeRecord(vals)
}

func newTestStore(t *testing.T) (*Store, *TableStore, *IndexStore) {
	s := NewStore()
	tbl, err := s.CreateTable("T")
	require.NoError(t, err)
	ix, err := s.CreateIndex(IndexSpec{
		Name:       "ix_b",
		Table:      "t",
		Unique:     true,
		Positions:  []int{1},
		Collations: []string{"nocase"},
		Columns:    "t.b",
	})
	require.NoError(t, err)
	return s, tbl, ix
}

func TestTableStore(t *testing.T) {
	_, tbl, _ := newTestStore(t)

	next, err := tbl.NextRowid()
	require.NoError(t, err)
	require.Equal(t, int64(1), next)

	tbl.Put(5, []byte("five"))
	tbl.Put(2, []byte("two"))
	tbl.Put(5, []byte("FIVE"))
	require.Equal(t, 2, tbl.Len())

	rec, ok := tbl.Get(5)
	require.True(t, ok)
	require.Equal(t, []byte("FIVE"), rec)
	_, ok = tbl.Get(3)
	require.False(t, ok)

	next, err = tbl.NextRowid()
	require.NoError(t, err)
	require.Equal(t, int64(6), next)

	var order []int64
	tbl.Scan(func(rowid int64, _ []byte) bool {
		order = append(order, rowid)
		return true
	})
	require.Equal(t, []int64{2, 5}, order)

	require.True(t, tbl.Delete(2))
	require.False(t, tbl.Delete(2))
}

func TestUniqueIndexConflicts(t *testing.T) {
	_, _, ix := newTestStore(t)

	require.NoError(t, ix.Insert(indexRecord(StringValue("Y"), IntValue(1))))

	rowid, found := ix.Conflict([]Value{StringValue("y")}, 0)
	require.True(t, found)
	require.Equal(t, int64(1), rowid)

	// The row's own entry is not a conflict.
	_, found = ix.Conflict([]Value{StringValue("y")}, 1)
	require.False(t, found)

	err := ix.Insert(indexRecord(StringValue("y"), IntValue(2)))
	require.Error(t, err)
	require.Equal(t, SVDB.SVDB_CONSTRAINT_UNIQUE, SVDB.ErrorCodeOf(err))
	require.Equal(t, "UNIQUE constraint failed: t.b", err.Error())

	// NULL keys never conflict.
	require.NoError(t, ix.Insert(indexRecord(NullValue(), IntValue(3))))
	require.NoError(t, ix.Insert(indexRecord(NullValue(), IntValue(4))))
	require.Equal(t, 3, ix.Len())

	removed, err := ix.Delete(indexRecord(StringValue("Y"), IntValue(1)))
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = ix.Delete(indexRecord(StringValue("Y"), IntValue(1)))
	require.NoError(t, err)
	require.False(t, removed)

	require.NoError(t, ix.Insert(indexRecord(StringValue("y"), IntValue(2))))

	err = ix.Insert(indexRecord(StringValue("y")))
	require.Error(t, err)
}

func TestCreateIndexBackfill(t *testing.T) {
	s, tbl, _ := newTestStore(t)
	tbl.Put(1, EncodeRecord([]Value{IntValue(1), StringValue("a")}))
	tbl.Put(2, EncodeRecord([]Value{IntValue(2), StringValue("A")}))

	ix, err := s.CreateIndex(IndexSpec{
		Name: "ix_plain", Table: "t", Positions: []int{1}, Collations: []string{"binary"}, Columns: "t.b",
	})
	require.NoError(t, err)
	require.Equal(t, 2, ix.Len())

	_, err = s.CreateIndex(IndexSpec{
		Name: "ix_u", Table: "t", Unique: true, Positions: []int{1}, Collations: []string{"nocase"}, Columns: "t.b",
	})
	require.Error(t, err)
	_, ok := s.Index("ix_u")
	require.False(t, ok)

	_, err = s.CreateIndex(IndexSpec{Name: "IX_PLAIN", Table: "t"})
	require.Error(t, err)
	_, err = s.CreateIndex(IndexSpec{Name: "other", Table: "missing"})
	require.Error(t, err)
}

func TestSnapshotRestore(t *testing.T) {
	s, tbl, ix := newTestStore(t)
	tbl.Put(1, []byte("one"))
	require.NoError(t, ix.Insert(indexRecord(StringValue("a"), IntValue(1))))

	snap := s.Snapshot()
	tbl.Put(2, []byte("two"))
	tbl.Delete(1)
	require.NoError(t, ix.Insert(indexRecord(StringValue("b"), IntValue(2))))

	s.Restore(snap)
	require.Equal(t, 1, tbl.Len())
	_, ok := tbl.Get(1)
	require.True(t, ok)
	require.Equal(t, 1, ix.Len())
	_, found := ix.Conflict([]Value{StringValue("B")}, 0)
	require.False(t, found)
}
