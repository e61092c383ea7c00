package driver

import (
	"database/sql/driver"
	"io"

	"github.com/sqlvibe/upsertc/pkg/sqlvibe"
)

// Rows implements driver.Rows over RETURNING output.
type Rows struct {
	rows *sqlvibe.Rows
}

func (r *Rows) Columns() []string {
	if r.rows == nil {
		return []string{}
	}
	return r.rows.Columns
}

// Close is a no-op; the rows are already in memory.
func (r *Rows) Close() error {
	return nil
}

// Next populates dest with the values of the next row.
// Returns io.EOF when there are no more rows.
func (r *Rows) Next(dest []driver.Value) error {
	if r.rows == nil || !r.rows.Next() {
		return io.EOF
	}
	ifaces := make([]interface{}, len(dest))
	ptrs := make([]interface{}, len(dest))
	for i := range ifaces {
		ptrs[i] = &ifaces[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return err
	}
	for i, v := range ifaces {
		dest[i] = toDriverValue(v)
	}
	return nil
}

// Ensure Rows implements driver.Rows.
var _ driver.Rows = &Rows{}
