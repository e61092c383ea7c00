package DS

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"

	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

type indexEntry struct {
	key   []Value
	rowid int64
	colls []string
}

func (e indexEntry) Less(than btree.Item) bool {
	o := than.(indexEntry)
	if c := compareKeys(e.key, o.key, e.colls); c != 0 {
		return c < 0
	}
	return e.rowid < o.rowid
}

func compareKeys(a, b []Value, colls []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareCollated(a[i], b[i], colls[i]); c != 0 {
			return c
		}
	}
	return cmpInt(int64(len(a)), int64(len(b)))
}

// IndexSpec describes an index to the store.
type IndexSpec struct {
	Name       string
	Table      string
	Unique     bool
	PrimaryKey bool
	// Positions are the table column positions of the key columns.
	Positions  []int
	Collations []string
	// Columns names the key as "t.a, t.b" for constraint messages.
	Columns string
}

// IndexStore holds (key..., rowid) entries ordered by the key's collations
// and then rowid.
type IndexStore struct {
	IndexSpec
	tree *btree.BTree
}

func (ix *IndexStore) Len() int { return ix.tree.Len() }

// Insert adds an index record: the key columns followed by the rowid.
func (ix *IndexStore) Insert(record []byte) error {
	key, rowid, err := ix.decodeEntry(record)
	if err != nil {
		return err
	}
	return ix.InsertKey(key, rowid)
}

// InsertKey adds (key, rowid). In a unique index a key equal to another
// row's key is a constraint violation; keys containing NULL never conflict.
func (ix *IndexStore) InsertKey(key []Value, rowid int64) error {
	if ix.Unique {
		if _, found := ix.Conflict(key, rowid); found {
			return ix.conflictError()
		}
	}
	ix.tree.ReplaceOrInsert(indexEntry{key: key, rowid: rowid, colls: ix.Collations})
	return nil
}

// Delete removes an index record, reporting whether it was present.
func (ix *IndexStore) Delete(record []byte) (bool, error) {
	key, rowid, err := ix.decodeEntry(record)
	if err != nil {
		return false, err
	}
	return ix.tree.Delete(indexEntry{key: key, rowid: rowid, colls: ix.Collations}) != nil, nil
}

// Conflict returns the rowid of an entry whose key equals key under the
// index collations, ignoring the entry for except.
func (ix *IndexStore) Conflict(key []Value, except int64) (int64, bool) {
	for _, v := range key {
		if v.IsNull() {
			return 0, false
		}
	}
	var (
		found  bool
		result int64
	)
	pivot := indexEntry{key: key, rowid: math.MinInt64, colls: ix.Collations}
	ix.tree.AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
		e := i.(indexEntry)
		if compareKeys(e.key, key, ix.Collations) != 0 {
			return false
		}
		if e.rowid != except {
			found, result = true, e.rowid
			return false
		}
		return true
	})
	return result, found
}

// Scan visits entries in index order until fn returns false.
func (ix *IndexStore) Scan(fn func(key []Value, rowid int64) bool) {
	ix.tree.Ascend(func(i btree.Item) bool {
		e := i.(indexEntry)
		return fn(e.key, e.rowid)
	})
}

func (ix *IndexStore) decodeEntry(record []byte) ([]Value, int64, error) {
	values, err := DecodeRecord(record)
	if err != nil {
		return nil, 0, err
	}
	if len(values) != len(ix.Collations)+1 {
		return nil, 0, errors.AssertionFailedf("index %s: record has %d columns, want %d",
			ix.Name, len(values), len(ix.Collations)+1)
	}
	last := values[len(values)-1]
	if last.Type != TypeInt {
		return nil, 0, errors.AssertionFailedf("index %s: record does not end in a rowid", ix.Name)
	}
	return values[:len(values)-1], last.Int, nil
}

func (ix *IndexStore) conflictError() error {
	if ix.PrimaryKey {
		return SVDB.Errorf(SVDB.SVDB_CONSTRAINT_PRIMARYKEY, "UNIQUE constraint failed: %s", ix.Columns)
	}
	return SVDB.Errorf(SVDB.SVDB_CONSTRAINT_UNIQUE, "UNIQUE constraint failed: %s", ix.Columns)
}
