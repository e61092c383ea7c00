package driver

import (
	"database/sql/driver"
	"fmt"
)

// toDriverValue converts a row value (nil, int64, float64, string or
// []byte) to a driver.Value.
func toDriverValue(v interface{}) driver.Value {
	switch val := v.(type) {
	case nil, int64, float64, string, []byte:
		return val
	}
	return fmt.Sprintf("%v", v)
}

// fromNamedValues orders arguments by ordinal. Names are ignored: the
// statement binds its parameters in order of first appearance.
func fromNamedValues(args []driver.NamedValue) []interface{} {
	pos := make([]interface{}, len(args))
	for _, a := range args {
		// Ordinal is 1-based.
		if idx := a.Ordinal - 1; idx >= 0 && idx < len(pos) {
			pos[idx] = a.Value
		}
	}
	return pos
}

func namedValues(args []driver.Value) []driver.NamedValue {
	out := make([]driver.NamedValue, len(args))
	for i, v := range args {
		out[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return out
}
