package sqlvibe

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/DS"
)

// Result reports the outcome of one statement.
type Result struct {
	LastInsertRowID int64
	RowsAffected    int64
	// Rows holds RETURNING output, or nil.
	Rows *Rows
}

type Rows struct {
	Columns []string
	Data    [][]interface{}
	pos     int  // Current position, starts at 0
	started bool // Whether Next() has been called
}

func newRows(columns []string, values [][]DS.Value) *Rows {
	data := make([][]interface{}, len(values))
	for i, row := range values {
		data[i] = make([]interface{}, len(row))
		for j, v := range row {
			data[i][j] = v.Interface()
		}
	}
	return &Rows{Columns: columns, Data: data}
}

func (r *Rows) Next() bool {
	if r.Data == nil {
		return false
	}
	if !r.started {
		r.started = true
		return len(r.Data) > 0
	}
	r.pos++
	return r.pos < len(r.Data)
}

// Scan copies the current row into dest. NULL leaves the destination
// untouched.
func (r *Rows) Scan(dest ...interface{}) error {
	if r.Data == nil || r.pos < 0 || r.pos >= len(r.Data) {
		return errors.New("no rows available")
	}
	row := r.Data[r.pos]
	for i, val := range dest {
		if i >= len(row) {
			break
		}
		if row[i] == nil {
			if d, ok := val.(*interface{}); ok {
				*d = nil
			}
			continue
		}
		switch d := val.(type) {
		case *int64:
			switch v := row[i].(type) {
			case int64:
				*d = v
			case float64:
				*d = int64(v)
			}
		case *float64:
			switch v := row[i].(type) {
			case int64:
				*d = float64(v)
			case float64:
				*d = v
			}
		case *string:
			switch v := row[i].(type) {
			case string:
				*d = v
			case []byte:
				*d = string(v)
			default:
				*d = fmt.Sprintf("%v", v)
			}
		case *[]byte:
			switch v := row[i].(type) {
			case []byte:
				*d = append([]byte(nil), v...)
			case string:
				*d = []byte(v)
			}
		case *interface{}:
			*d = row[i]
		default:
			return errors.Newf("unsupported Scan destination %T", val)
		}
	}
	return nil
}
