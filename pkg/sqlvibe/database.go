package sqlvibe

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/CG"
	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
	"github.com/sqlvibe/upsertc/internal/VM"
	"github.com/sqlvibe/upsertc/internal/log"
)

// Database is an in-memory database that runs CREATE TABLE, CREATE INDEX
// and INSERT ... ON CONFLICT statements. It is safe for concurrent use;
// statements run one at a time.
type Database struct {
	mu       sync.Mutex
	cfg      Config
	opts     CG.Options
	schema   *IS.Schema
	store    *DS.Store
	registry *IS.Registry
	cache    *statementCache
	changes  int64
	closed   bool
}

// Open creates an empty database. With change capture enabled the CDC
// table is created up front.
func Open(cfg Config) (*Database, error) {
	mode, err := cfg.cdcMode()
	if err != nil {
		return nil, SVDB.Wrap(err, SVDB.SVDB_MISUSE, "invalid configuration")
	}
	schema := IS.NewSchema()
	db := &Database{
		cfg:      cfg,
		opts:     CG.Options{CaptureDataChanges: mode, CDCTable: cfg.CDCTable},
		schema:   schema,
		store:    DS.NewStore(),
		registry: IS.NewRegistry(schema),
		cache:    newStatementCache(cfg.StmtCacheSize),
	}
	if mode.Enabled() {
		stmt, err := QP.Parse(CG.CDCTableSQL(cfg.CDCTable))
		if err != nil {
			return nil, errors.Wrapf(err, "CDC table %q", cfg.CDCTable)
		}
		if err := db.createTable(stmt.(*QP.CreateTableStmt)); err != nil {
			return nil, err
		}
	}
	log.WithFields(log.Fields{"cdc": mode.String(), "stmtCache": cfg.StmtCacheSize}).Debug("opened database")
	return db, nil
}

func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	db.cache.Purge()
	return nil
}

// Exec runs a single statement. Parameters bind to ?, ?NNN, :name, @name
// and $name placeholders in order of first appearance.
func (db *Database) Exec(ctx context.Context, sql string, params ...interface{}) (*Result, error) {
	stmt, err := QP.Parse(sql)
	if err != nil {
		return nil, countError(err)
	}
	args, err := bindParams(params)
	if err != nil {
		return nil, countError(err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	res, err := db.execStmt(ctx, sql, stmt, args)
	if err != nil {
		return nil, countError(err)
	}
	return res, nil
}

// ExecScript runs a semicolon-separated script and returns one Result per
// statement. Nothing runs if the script does not parse. Otherwise it stops
// at the first failing statement; the statements before it stay applied.
func (db *Database) ExecScript(ctx context.Context, sql string) ([]*Result, error) {
	stmts, err := QP.ParseScript(sql)
	if err != nil {
		return nil, countError(err)
	}
	texts, err := QP.SplitStatements(sql)
	if err != nil {
		return nil, countError(err)
	}
	if len(texts) != len(stmts) {
		return nil, errors.AssertionFailedf("script split into %d statements, parsed %d", len(texts), len(stmts))
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*Result
	for i, stmt := range stmts {
		res, err := db.execStmt(ctx, texts[i], stmt, nil)
		if err != nil {
			return out, errors.WithDetailf(countError(err), "statement %d", i+1)
		}
		out = append(out, res)
	}
	return out, nil
}

// execStmt runs one parsed statement. sql is the cache key, or empty to
// bypass the statement cache.
func (db *Database) execStmt(ctx context.Context, sql string, stmt QP.ASTNode, params []DS.Value) (*Result, error) {
	if db.closed {
		return nil, SVDB.NewError(SVDB.SVDB_MISUSE, "database is closed")
	}
	db.changes = 0

	switch s := stmt.(type) {
	case *QP.CreateTableStmt:
		statementsTotal.WithLabelValues(kindCreateTable).Inc()
		return &Result{}, db.createTable(s)
	case *QP.CreateIndexStmt:
		statementsTotal.WithLabelValues(kindCreateIndex).Inc()
		return &Result{}, db.createIndex(s)
	case *QP.InsertStmt:
		if len(s.Upserts) != 0 {
			statementsTotal.WithLabelValues(kindUpsert).Inc()
		} else {
			statementsTotal.WithLabelValues(kindInsert).Inc()
		}
		return db.execInsert(ctx, sql, s, params)
	}
	return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "unsupported statement %s", stmt.NodeType())
}

func (db *Database) execInsert(ctx context.Context, sql string, stmt *QP.InsertStmt, params []DS.Value) (*Result, error) {
	prog, err := db.program(sql, stmt)
	if err != nil {
		return nil, err
	}

	snap := db.store.Snapshot()
	vm := VM.NewVM(prog, db.store)
	if err := vm.Run(ctx, params); err != nil {
		db.store.Restore(snap)
		return nil, err
	}

	db.changes = vm.Changes()
	res := &Result{LastInsertRowID: vm.LastInsertRowid(), RowsAffected: vm.Changes()}
	if len(prog.ResultColumns) != 0 {
		res.Rows = newRows(prog.ResultColumns, vm.Results())
	}
	return res, nil
}

// program returns the compiled program for an INSERT, from the statement
// cache when sql is non-empty.
func (db *Database) program(sql string, stmt *QP.InsertStmt) (*VM.Program, error) {
	if sql != "" {
		if prog, ok := db.cache.Get(sql); ok {
			stmtCacheTotal.WithLabelValues("hit").Inc()
			log.WithFields(log.Fields{"table": stmt.Table}).Debug("statement cache hit")
			return prog, nil
		}
		stmtCacheTotal.WithLabelValues("miss").Inc()
	}
	prog, err := CG.NewCompiler(db.schema, db.opts).CompileInsert(stmt)
	if err != nil {
		return nil, err
	}
	if sql != "" {
		db.cache.Add(sql, prog)
	}
	return prog, nil
}

// Explain compiles an INSERT and renders its program listing.
func (db *Database) Explain(sql string) (string, error) {
	stmt, err := QP.Parse(sql)
	if err != nil {
		return "", err
	}
	ins, ok := stmt.(*QP.InsertStmt)
	if !ok {
		return "", SVDB.Errorf(SVDB.SVDB_ERROR, "cannot explain %s", stmt.NodeType())
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	prog, err := db.program(sql, ins)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	prog.Explain(&buf)
	return buf.String(), nil
}

// Changes reports the rows inserted or updated by the last statement.
func (db *Database) Changes() int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.changes
}

// Tables lists the tables in creation order.
func (db *Database) Tables() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []string
	for _, t := range db.schema.Tables() {
		out = append(out, t.Name)
	}
	return out
}

// Rows dumps a table in rowid order. An INTEGER PRIMARY KEY column reads
// the row's key.
func (db *Database) Rows(table string) (*Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl, ok := db.schema.GetTable(table)
	if !ok {
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "no such table: %s", table)
	}
	ts, ok := db.store.Table(tbl.Name)
	if !ok {
		return nil, errors.AssertionFailedf("table %s has no storage", tbl.Name)
	}
	alias, _, hasAlias := tbl.RowidAlias()

	var out [][]DS.Value
	var err error
	ts.Scan(func(rowid int64, rec []byte) bool {
		var vals []DS.Value
		if vals, err = DS.DecodeRecord(rec); err != nil {
			err = errors.Wrapf(err, "table %s rowid %d", tbl.Name, rowid)
			return false
		}
		row := make([]DS.Value, len(tbl.Columns))
		copy(row, vals)
		if hasAlias {
			row[alias] = DS.IntValue(rowid)
		}
		out = append(out, row)
		return true
	})
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		cols[i] = c.Name
	}
	return newRows(cols, out), nil
}

// InformationSchema returns the rows of information_schema.<view>: tables,
// columns or table_constraints.
func (db *Database) InformationSchema(view string) (*Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cols, data, err := db.registry.QueryInformationSchema(view)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = [][]interface{}{}
	}
	return &Rows{Columns: cols, Data: data}, nil
}

func bindParams(params []interface{}) ([]DS.Value, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make([]DS.Value, len(params))
	for i, p := range params {
		v, err := DS.FromInterface(p)
		if err != nil {
			return nil, SVDB.Wrap(err, SVDB.SVDB_MISUSE, fmt.Sprintf("parameter %d", i+1))
		}
		out[i] = v
	}
	return out, nil
}

func countError(err error) error {
	statementErrorsTotal.WithLabelValues(ErrorCodeOf(err).String()).Inc()
	return err
}
