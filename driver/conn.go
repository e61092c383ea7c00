package driver

import (
	"context"
	"database/sql/driver"

	"github.com/sqlvibe/upsertc/pkg/sqlvibe"
)

// Conn implements driver.Conn, driver.ExecerContext and
// driver.QueryerContext. Every statement commits on its own.
type Conn struct {
	db *sqlvibe.Database
}

// Prepare returns a prepared statement. Compilation happens on first
// execution and is cached by the database.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query, conn: c}, nil
}

// Close releases the connection. The shared database stays open.
func (c *Conn) Close() error {
	return nil
}

func (c *Conn) Begin() (driver.Tx, error) {
	return nil, sqlvibe.NewError(sqlvibe.SVDB_MISUSE, "transactions are not supported")
}

// ExecContext runs a statement and discards any RETURNING rows.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	res, err := c.db.Exec(ctx, query, fromNamedValues(args)...)
	if err != nil {
		return nil, err
	}
	return Result{lastInsertID: res.LastInsertRowID, rowsAffected: res.RowsAffected}, nil
}

// QueryContext runs a statement and returns its RETURNING rows. A statement
// without RETURNING yields no columns and no rows.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	res, err := c.db.Exec(ctx, query, fromNamedValues(args)...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: res.Rows}, nil
}

// Ensure Conn implements required interfaces.
var _ driver.Conn = &Conn{}
var _ driver.ExecerContext = &Conn{}
var _ driver.QueryerContext = &Conn{}
