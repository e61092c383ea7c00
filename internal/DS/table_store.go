package DS

import (
	"math"

	"github.com/google/btree"

	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

const btreeDegree = 16

type rowItem struct {
	rowid  int64
	record []byte
}

func (r rowItem) Less(than btree.Item) bool {
	return r.rowid < than.(rowItem).rowid
}

// TableStore holds a table's rows keyed by rowid.
type TableStore struct {
	Name string
	tree *btree.BTree
}

func newTableStore(name string) *TableStore {
	return &TableStore{Name: name, tree: btree.New(btreeDegree)}
}

func (t *TableStore) Get(rowid int64) ([]byte, bool) {
	item := t.tree.Get(rowItem{rowid: rowid})
	if item == nil {
		return nil, false
	}
	return item.(rowItem).record, true
}

// Put inserts or overwrites the row stored under rowid.
func (t *TableStore) Put(rowid int64, record []byte) {
	t.tree.ReplaceOrInsert(rowItem{rowid: rowid, record: record})
}

func (t *TableStore) Delete(rowid int64) bool {
	return t.tree.Delete(rowItem{rowid: rowid}) != nil
}

func (t *TableStore) Len() int { return t.tree.Len() }

// NextRowid returns one more than the largest rowid in use, or 1 for an
// empty table.
func (t *TableStore) NextRowid() (int64, error) {
	max := t.tree.Max()
	if max == nil {
		return 1, nil
	}
	last := max.(rowItem).rowid
	if last == math.MaxInt64 {
		return 0, SVDB.NewError(SVDB.SVDB_FULL, "database or disk is full")
	}
	return last + 1, nil
}

// Scan visits rows in rowid order until fn returns false.
func (t *TableStore) Scan(fn func(rowid int64, record []byte) bool) {
	t.tree.Ascend(func(i btree.Item) bool {
		r := i.(rowItem)
		return fn(r.rowid, r.record)
	})
}
