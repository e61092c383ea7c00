package DS

import (
	"strings"

	"github.com/google/btree"

	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// Store owns every table and index tree of a database. It is not safe for
// concurrent use; callers serialize statements.
type Store struct {
	tables  map[string]*TableStore
	indexes map[string]*IndexStore
}

func NewStore() *Store {
	return &Store{
		tables:  make(map[string]*TableStore),
		indexes: make(map[string]*IndexStore),
	}
}

func storeKey(name string) string { return strings.ToLower(name) }

func (s *Store) CreateTable(name string) (*TableStore, error) {
	key := storeKey(name)
	if _, ok := s.tables[key]; ok {
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "table %s already exists", name)
	}
	t := newTableStore(name)
	s.tables[key] = t
	return t, nil
}

func (s *Store) Table(name string) (*TableStore, bool) {
	t, ok := s.tables[storeKey(name)]
	return t, ok
}

func (s *Store) Index(name string) (*IndexStore, bool) {
	ix, ok := s.indexes[storeKey(name)]
	return ix, ok
}

// CreateIndex creates an index and fills it from the table's existing rows.
// Nothing is registered if the rows violate a unique index.
func (s *Store) CreateIndex(spec IndexSpec) (*IndexStore, error) {
	key := storeKey(spec.Name)
	if _, ok := s.indexes[key]; ok {
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "index %s already exists", spec.Name)
	}
	t, ok := s.Table(spec.Table)
	if !ok {
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "no such table: %s", spec.Table)
	}
	ix := &IndexStore{IndexSpec: spec, tree: btree.New(btreeDegree)}

	var err error
	t.Scan(func(rowid int64, record []byte) bool {
		var row []Value
		if row, err = DecodeRecord(record); err != nil {
			return false
		}
		k := make([]Value, len(spec.Positions))
		for i, pos := range spec.Positions {
			if pos < len(row) {
				k[i] = row[pos]
			}
		}
		err = ix.InsertKey(k, rowid)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	s.indexes[key] = ix
	return ix, nil
}

// Snapshot is a point-in-time copy of every tree, taken copy-on-write.
type Snapshot struct {
	tables  map[string]*btree.BTree
	indexes map[string]*btree.BTree
}

func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		tables:  make(map[string]*btree.BTree, len(s.tables)),
		indexes: make(map[string]*btree.BTree, len(s.indexes)),
	}
	for k, t := range s.tables {
		snap.tables[k] = t.tree.Clone()
	}
	for k, ix := range s.indexes {
		snap.indexes[k] = ix.tree.Clone()
	}
	return snap
}

// Restore rolls every tree back to the snapshot.
func (s *Store) Restore(snap *Snapshot) {
	for k, tree := range snap.tables {
		if t, ok := s.tables[k]; ok {
			t.tree = tree
		}
	}
	for k, tree := range snap.indexes {
		if ix, ok := s.indexes[k]; ok {
			ix.tree = tree
		}
	}
}
