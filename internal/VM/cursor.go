package VM

import (
	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/DS"
)

// Cursor is an open table or index. A table cursor positioned by
// SeekRowid or NotExists caches the decoded row; an index cursor
// positioned by NoConflict remembers the conflicting rowid.
type Cursor struct {
	ID    int
	Kind  int32
	Name  string
	Table *DS.TableStore
	Index *DS.IndexStore
	RowID int64
	Valid bool

	record []byte
	row    []DS.Value
}

// CursorArray holds the program's cursors by id.
type CursorArray struct {
	cursors []*Cursor
}

func NewCursorArray(n int) *CursorArray {
	return &CursorArray{cursors: make([]*Cursor, n)}
}

// Open opens cursor id on the store object named name.
func (ca *CursorArray) Open(store *DS.Store, id int, kind int32, name string) error {
	if id < 0 || id >= len(ca.cursors) {
		return errors.AssertionFailedf("cursor %d out of range", id)
	}
	c := &Cursor{ID: id, Kind: kind, Name: name}
	switch kind {
	case CursorTable:
		t, ok := store.Table(name)
		if !ok {
			return errors.AssertionFailedf("no storage for table %s", name)
		}
		c.Table = t
	case CursorIndex:
		ix, ok := store.Index(name)
		if !ok {
			return errors.AssertionFailedf("no storage for index %s", name)
		}
		c.Index = ix
	default:
		return errors.AssertionFailedf("unknown cursor kind %d", kind)
	}
	ca.cursors[id] = c
	return nil
}

func (ca *CursorArray) Get(id int) (*Cursor, error) {
	if id < 0 || id >= len(ca.cursors) || ca.cursors[id] == nil {
		return nil, errors.AssertionFailedf("cursor %d is not open", id)
	}
	return ca.cursors[id], nil
}

// SeekRowid positions a table cursor on rowid, reporting whether the row exists.
func (c *Cursor) SeekRowid(rowid int64) bool {
	rec, ok := c.Table.Get(rowid)
	c.RowID, c.Valid = rowid, ok
	c.record, c.row = rec, nil
	return ok
}

// Column returns column i of the current row. Columns past the end of the
// stored record read as NULL.
func (c *Cursor) Column(i int) (DS.Value, error) {
	if !c.Valid {
		return DS.NullValue(), nil
	}
	if c.row == nil {
		row, err := DS.DecodeRecord(c.record)
		if err != nil {
			return DS.Value{}, errors.Wrapf(err, "cursor %d row %d", c.ID, c.RowID)
		}
		c.row = row
	}
	if i < 0 || i >= len(c.row) {
		return DS.NullValue(), nil
	}
	return c.row[i], nil
}

// Record returns the raw record of the current row.
func (c *Cursor) Record() ([]byte, bool) {
	return c.record, c.Valid
}

// invalidate drops the cached row after a write under the cursor.
func (c *Cursor) invalidate() {
	if c.Table != nil && c.Valid {
		c.SeekRowid(c.RowID)
	}
}
