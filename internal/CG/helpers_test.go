package CG

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
	"github.com/sqlvibe/upsertc/internal/VM"
)

// testDB keeps a schema and a store in step so compiled programs can run.
type testDB struct {
	schema *IS.Schema
	store  *DS.Store
	opts   Options
}

func newTestDB(t *testing.T, ddl string) *testDB {
	t.Helper()
	db := &testDB{schema: IS.NewSchema(), store: DS.NewStore()}
	db.ddl(t, ddl)
	return db
}

func (db *testDB) ddl(t *testing.T, sql string) {
	t.Helper()
	stmts, err := QP.ParseScript(sql)
	require.NoError(t, err)
	for _, stmt := range stmts {
		require.NoError(t, db.apply(stmt))
	}
}

func (db *testDB) apply(stmt QP.ASTNode) error {
	switch s := stmt.(type) {
	case *QP.CreateTableStmt:
		tbl, autos, err := db.schema.AddTable(s)
		if err != nil || tbl == nil {
			return err
		}
		if _, err := db.store.CreateTable(tbl.Name); err != nil {
			return err
		}
		for _, idx := range autos {
			if err := db.createIndex(tbl, idx); err != nil {
				return err
			}
		}
		return nil
	case *QP.CreateIndexStmt:
		idx, err := db.schema.AddIndex(s)
		if err != nil || idx == nil {
			return err
		}
		tbl, _ := db.schema.GetTable(idx.Table)
		return db.createIndex(tbl, idx)
	}
	return errors.Newf("unexpected statement %s", stmt.NodeType())
}

func (db *testDB) createIndex(tbl *IS.Table, idx *IS.Index) error {
	spec := DS.IndexSpec{
		Name:       idx.Name,
		Table:      tbl.Name,
		Unique:     idx.Unique,
		PrimaryKey: idx.PrimaryKey,
		Collations: idx.Collations(tbl),
		Columns:    idx.ColumnNames(),
	}
	for _, ic := range idx.Columns {
		spec.Positions = append(spec.Positions, ic.Pos)
	}
	_, err := db.store.CreateIndex(spec)
	return err
}

func parseInsert(t *testing.T, sql string) *QP.InsertStmt {
	t.Helper()
	stmt, err := QP.Parse(sql)
	require.NoError(t, err)
	ins, ok := stmt.(*QP.InsertStmt)
	require.True(t, ok, "not an INSERT: %s", sql)
	return ins
}

func (db *testDB) compile(t *testing.T, sql string) (*VM.Program, error) {
	t.Helper()
	return NewCompiler(db.schema, db.opts).CompileInsert(parseInsert(t, sql))
}

// insert compiles and runs one INSERT, rolling the store back on failure.
func (db *testDB) insert(t *testing.T, sql string, params ...DS.Value) (*VM.VM, error) {
	t.Helper()
	prog, err := db.compile(t, sql)
	if err != nil {
		return nil, err
	}
	snap := db.store.Snapshot()
	vm := VM.NewVM(prog, db.store)
	if err := vm.Run(context.Background(), params); err != nil {
		db.store.Restore(snap)
		return vm, err
	}
	return vm, nil
}

func (db *testDB) mustInsert(t *testing.T, sql string, params ...DS.Value) *VM.VM {
	t.Helper()
	vm, err := db.insert(t, sql, params...)
	require.NoError(t, err)
	return vm
}

// rows returns every stored row of a table as rowid followed by the
// columns, in rowid order.
func (db *testDB) rows(t *testing.T, name string) [][]DS.Value {
	t.Helper()
	tbl, ok := db.schema.GetTable(name)
	require.True(t, ok, "no table %s", name)
	ts, ok := db.store.Table(name)
	require.True(t, ok, "no store for %s", name)

	var out [][]DS.Value
	var err error
	ts.Scan(func(rowid int64, rec []byte) bool {
		var vals []DS.Value
		if vals, err = DS.DecodeRecord(rec); err != nil {
			return false
		}
		row := make([]DS.Value, len(tbl.Columns)+1)
		row[0] = DS.IntValue(rowid)
		copy(row[1:], vals)
		out = append(out, row)
		return true
	})
	require.NoError(t, err)
	return out
}

func formatRow(row []DS.Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = QP.FormatLiteral(v.Interface())
	}
	return strings.Join(parts, ", ")
}

func formatRows(rows [][]DS.Value) string {
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(formatRow(r))
		sb.WriteByte('\n')
	}
	return sb.String()
}
