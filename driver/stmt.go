package driver

import (
	"context"
	"database/sql/driver"
)

// Stmt implements driver.Stmt, driver.StmtExecContext, and driver.StmtQueryContext.
type Stmt struct {
	query  string
	conn   *Conn
	closed bool
}

// Close closes the prepared statement.
func (s *Stmt) Close() error {
	if s.closed {
		return driver.ErrBadConn
	}
	s.closed = true
	return nil
}

// NumInput returns -1 so the database/sql package validates args dynamically.
func (s *Stmt) NumInput() int {
	return -1
}

func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), namedValues(args))
}

func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), namedValues(args))
}

func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if s.closed {
		return nil, driver.ErrBadConn
	}
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if s.closed {
		return nil, driver.ErrBadConn
	}
	return s.conn.QueryContext(ctx, s.query, args)
}

// Ensure Stmt implements required interfaces.
var _ driver.Stmt = &Stmt{}
var _ driver.StmtExecContext = &Stmt{}
var _ driver.StmtQueryContext = &Stmt{}
