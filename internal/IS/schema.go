package IS

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/QP"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// RowidColumnName is the name of the implicit rowid column.
const RowidColumnName = "rowid"

// DefaultCollation is used when neither an index nor a column declares one.
const DefaultCollation = "binary"

var knownCollations = map[string]bool{
	"binary": true,
	"nocase": true,
	"rtrim":  true,
}

// Affinity is a column type affinity, encoded with the single-letter codes
// the record builder expects.
type Affinity byte

const (
	AffinityBlob    Affinity = 'A'
	AffinityText    Affinity = 'B'
	AffinityNumeric Affinity = 'C'
	AffinityInteger Affinity = 'D'
	AffinityReal    Affinity = 'E'
)

// AffinityOf derives the affinity of a declared column type using the
// usual substring rules.
func AffinityOf(declType string) Affinity {
	t := strings.ToUpper(declType)
	switch {
	case strings.Contains(t, "INT"):
		return AffinityInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return AffinityText
	case t == "", strings.Contains(t, "BLOB"):
		return AffinityBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return AffinityReal
	}
	return AffinityNumeric
}

// strictTypes are the declared types accepted by STRICT tables.
var strictTypes = map[string]bool{
	"INT":     true,
	"INTEGER": true,
	"REAL":    true,
	"TEXT":    true,
	"BLOB":    true,
	"ANY":     true,
}

type Column struct {
	Name         string
	Type         string
	Affinity     Affinity
	NotNull      bool
	PrimaryKey   bool
	IsRowidAlias bool
	Collation    string
	Default      QP.Expr
}

// EffectiveCollation returns the declared collation or binary.
func (c *Column) EffectiveCollation() string {
	if c.Collation != "" {
		return c.Collation
	}
	return DefaultCollation
}

type Table struct {
	Name          string
	Columns       []*Column
	Strict        bool
	Autoincrement bool
}

// GetColumnByName looks a column up case-insensitively and returns its
// position.
func (t *Table) GetColumnByName(name string) (int, *Column, bool) {
	norm := QP.NormalizeIdent(name)
	for i, c := range t.Columns {
		if QP.NormalizeIdent(c.Name) == norm {
			return i, c, true
		}
	}
	return -1, nil, false
}

// RowidAlias returns the INTEGER PRIMARY KEY column, if the table has one.
func (t *Table) RowidAlias() (int, *Column, bool) {
	for i, c := range t.Columns {
		if c.IsRowidAlias {
			return i, c, true
		}
	}
	return -1, nil, false
}

// PrimaryKeyName is the column name an ON CONFLICT target must use to
// address the primary key: the first primary-key or rowid-alias column, or
// the implicit rowid.
func (t *Table) PrimaryKeyName() string {
	for _, c := range t.Columns {
		if c.IsRowidAlias || c.PrimaryKey {
			return c.Name
		}
	}
	return RowidColumnName
}

// IsRowidRef reports whether name refers to the row's key: one of the
// rowid spellings not shadowed by a real column.
func (t *Table) IsRowidRef(name string) bool {
	if !QP.IsRowidName(name) {
		return false
	}
	_, _, shadowed := t.GetColumnByName(name)
	return !shadowed
}

// AffinityString returns one affinity code per column, in column order.
func (t *Table) AffinityString() string {
	b := make([]byte, len(t.Columns))
	for i, c := range t.Columns {
		b[i] = byte(c.Affinity)
	}
	return string(b)
}

type IndexColumn struct {
	Name string
	// Pos is the column's position in the table.
	Pos       int
	Collation string
	Desc      bool
}

type Index struct {
	Name       string
	Table      string
	Unique     bool
	PrimaryKey bool
	AutoIndex  bool
	Columns    []IndexColumn
}

// EffectiveCollation resolves the collation used to compare the i'th key
// column: the index column's own COLLATE, then the table column's declared
// collation, then binary.
func (idx *Index) EffectiveCollation(i int, table *Table) string {
	ic := idx.Columns[i]
	if ic.Collation != "" {
		return ic.Collation
	}
	if _, col, ok := table.GetColumnByName(ic.Name); ok {
		return col.EffectiveCollation()
	}
	return DefaultCollation
}

// Collations returns the effective collation of every key column.
func (idx *Index) Collations(table *Table) []string {
	out := make([]string, len(idx.Columns))
	for i := range idx.Columns {
		out[i] = idx.EffectiveCollation(i, table)
	}
	return out
}

// ColumnNames renders the key as table.col, table.col for constraint
// messages.
func (idx *Index) ColumnNames() string {
	parts := make([]string, len(idx.Columns))
	for i, ic := range idx.Columns {
		parts[i] = idx.Table + "." + ic.Name
	}
	return strings.Join(parts, ", ")
}

// Schema is the catalog of tables and indexes. It is not safe for
// concurrent mutation; the database facade serializes DDL.
type Schema struct {
	tables  map[string]*Table
	indexes map[string]*Index
	// Creation order, for deterministic iteration.
	tableOrder []string
	indexOrder []string
	autoSeq    map[string]int
}

func NewSchema() *Schema {
	return &Schema{
		tables:  make(map[string]*Table),
		indexes: make(map[string]*Index),
		autoSeq: make(map[string]int),
	}
}

func (s *Schema) GetTable(name string) (*Table, bool) {
	t, ok := s.tables[QP.NormalizeIdent(name)]
	return t, ok
}

// GetIndex returns the index a compiled plan refers to. A missing index is
// an internal inconsistency, not a user error.
func (s *Schema) GetIndex(table, name string) (*Index, error) {
	idx, ok := s.indexes[QP.NormalizeIdent(name)]
	if !ok || QP.NormalizeIdent(idx.Table) != QP.NormalizeIdent(table) {
		return nil, errors.AssertionFailedf("index %s on table %s not found in schema", name, table)
	}
	return idx, nil
}

// TableIndexes returns the table's indexes in creation order.
func (s *Schema) TableIndexes(table string) []*Index {
	norm := QP.NormalizeIdent(table)
	var out []*Index
	for _, name := range s.indexOrder {
		if idx := s.indexes[name]; QP.NormalizeIdent(idx.Table) == norm {
			out = append(out, idx)
		}
	}
	return out
}

func (s *Schema) Tables() []*Table {
	out := make([]*Table, 0, len(s.tableOrder))
	for _, name := range s.tableOrder {
		out = append(out, s.tables[name])
	}
	return out
}

// AddTable registers a table and the automatic indexes its UNIQUE and
// non-alias PRIMARY KEY constraints imply. It returns the table and those
// indexes, or nil values when IF NOT EXISTS matched an existing table.
func (s *Schema) AddTable(stmt *QP.CreateTableStmt) (*Table, []*Index, error) {
	norm := QP.NormalizeIdent(stmt.Name)
	if _, exists := s.tables[norm]; exists {
		if stmt.IfNotExists {
			return nil, nil, nil
		}
		return nil, nil, SVDB.Errorf(SVDB.SVDB_ERROR, "table %s already exists", stmt.Name)
	}

	t := &Table{Name: stmt.Name, Strict: stmt.Strict}
	var pkCols []QP.IndexedColumn
	for _, cd := range stmt.Columns {
		if _, _, dup := t.GetColumnByName(cd.Name); dup {
			return nil, nil, SVDB.Errorf(SVDB.SVDB_ERROR, "duplicate column name: %s", cd.Name)
		}
		col := &Column{
			Name:       cd.Name,
			Type:       cd.Type,
			Affinity:   AffinityOf(cd.Type),
			NotNull:    cd.NotNull,
			PrimaryKey: cd.PrimaryKey,
			Collation:  cd.Collate,
			Default:    cd.Default,
		}
		if err := checkCollation(col.Collation); err != nil {
			return nil, nil, err
		}
		if stmt.Strict {
			if col.Type == "" {
				return nil, nil, SVDB.Errorf(SVDB.SVDB_ERROR, "missing datatype for %s.%s", t.Name, col.Name)
			}
			if !strictTypes[col.Type] {
				return nil, nil, SVDB.Errorf(SVDB.SVDB_ERROR, "unknown datatype for %s.%s: \"%s\"", t.Name, col.Name, col.Type)
			}
		}
		if cd.PrimaryKey {
			if len(pkCols) > 0 {
				return nil, nil, SVDB.Errorf(SVDB.SVDB_ERROR, "table \"%s\" has more than one primary key", t.Name)
			}
			pkCols = append(pkCols, QP.IndexedColumn{Name: cd.Name, Desc: cd.Desc})
			t.Autoincrement = cd.Autoincrement
		}
		t.Columns = append(t.Columns, col)
	}

	var uniques [][]QP.IndexedColumn
	for _, cd := range stmt.Columns {
		if cd.Unique {
			uniques = append(uniques, []QP.IndexedColumn{{Name: cd.Name}})
		}
	}
	for _, tc := range stmt.Constraints {
		for _, ic := range tc.Columns {
			if _, _, ok := t.GetColumnByName(ic.Name); !ok {
				return nil, nil, SVDB.Errorf(SVDB.SVDB_ERROR, "no such column: %s", ic.Name)
			}
			if err := checkCollation(ic.Collate); err != nil {
				return nil, nil, err
			}
		}
		if tc.PrimaryKey {
			if len(pkCols) > 0 {
				return nil, nil, SVDB.Errorf(SVDB.SVDB_ERROR, "table \"%s\" has more than one primary key", t.Name)
			}
			pkCols = tc.Columns
			for _, ic := range tc.Columns {
				_, col, _ := t.GetColumnByName(ic.Name)
				col.PrimaryKey = true
			}
		} else {
			uniques = append(uniques, tc.Columns)
		}
	}

	// A lone INTEGER PRIMARY KEY in ascending order aliases the rowid.
	aliased := false
	if len(pkCols) == 1 && !pkCols[0].Desc && pkCols[0].Collate == "" {
		_, col, _ := t.GetColumnByName(pkCols[0].Name)
		if strings.EqualFold(col.Type, "INTEGER") {
			col.IsRowidAlias = true
			aliased = true
		}
	}
	if t.Autoincrement && !aliased {
		return nil, nil, SVDB.NewError(SVDB.SVDB_ERROR, "AUTOINCREMENT is only allowed on an INTEGER PRIMARY KEY")
	}

	s.tables[norm] = t
	s.tableOrder = append(s.tableOrder, norm)

	var autos []*Index
	if len(pkCols) > 0 && !aliased {
		idx := s.addAutoIndex(t, pkCols)
		idx.PrimaryKey = true
		autos = append(autos, idx)
	}
	for _, cols := range uniques {
		autos = append(autos, s.addAutoIndex(t, cols))
	}
	return t, autos, nil
}

func (s *Schema) addAutoIndex(t *Table, cols []QP.IndexedColumn) *Index {
	norm := QP.NormalizeIdent(t.Name)
	s.autoSeq[norm]++
	idx := &Index{
		Name:      fmt.Sprintf("sqlvibe_autoindex_%s_%d", t.Name, s.autoSeq[norm]),
		Table:     t.Name,
		Unique:    true,
		AutoIndex: true,
		Columns:   indexColumns(t, cols),
	}
	s.registerIndex(idx)
	return idx
}

func indexColumns(t *Table, cols []QP.IndexedColumn) []IndexColumn {
	out := make([]IndexColumn, len(cols))
	for i, ic := range cols {
		pos, col, _ := t.GetColumnByName(ic.Name)
		out[i] = IndexColumn{Name: col.Name, Pos: pos, Collation: ic.Collate, Desc: ic.Desc}
	}
	return out
}

func (s *Schema) registerIndex(idx *Index) {
	norm := QP.NormalizeIdent(idx.Name)
	s.indexes[norm] = idx
	s.indexOrder = append(s.indexOrder, norm)
}

// AddIndex registers a CREATE INDEX. It returns nil when IF NOT EXISTS
// matched an existing index.
func (s *Schema) AddIndex(stmt *QP.CreateIndexStmt) (*Index, error) {
	if _, exists := s.indexes[QP.NormalizeIdent(stmt.Name)]; exists {
		if stmt.IfNotExists {
			return nil, nil
		}
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "index %s already exists", stmt.Name)
	}
	if strings.HasPrefix(QP.NormalizeIdent(stmt.Name), "sqlvibe_") {
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "object name reserved for internal use: %s", stmt.Name)
	}
	t, ok := s.GetTable(stmt.Table)
	if !ok {
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "no such table: %s", stmt.Table)
	}
	for _, ic := range stmt.Columns {
		if _, _, ok := t.GetColumnByName(ic.Name); !ok {
			return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "no such column: %s", ic.Name)
		}
		if err := checkCollation(ic.Collate); err != nil {
			return nil, err
		}
	}
	idx := &Index{
		Name:    stmt.Name,
		Table:   t.Name,
		Unique:  stmt.Unique,
		Columns: indexColumns(t, stmt.Columns),
	}
	s.registerIndex(idx)
	return idx, nil
}

// RemoveIndex unregisters an index. It undoes an AddIndex whose backfill
// failed.
func (s *Schema) RemoveIndex(name string) {
	norm := QP.NormalizeIdent(name)
	if _, ok := s.indexes[norm]; !ok {
		return
	}
	delete(s.indexes, norm)
	for i, n := range s.indexOrder {
		if n == norm {
			s.indexOrder = append(s.indexOrder[:i:i], s.indexOrder[i+1:]...)
			break
		}
	}
}

func checkCollation(name string) error {
	if name != "" && !knownCollations[name] {
		return SVDB.Errorf(SVDB.SVDB_ERROR, "no such collation sequence: %s", name)
	}
	return nil
}
