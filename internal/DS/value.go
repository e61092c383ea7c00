package DS

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType enumerates the storage classes. The numeric order is the sort
// order across classes: NULL, numbers, text, blobs.
type ValueType int

const (
	TypeNull   ValueType = iota
	TypeInt              // int64
	TypeFloat            // float64
	TypeString           // string
	TypeBytes            // []byte
)

// Value holds a single typed datum.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
	Bytes []byte
}

func NullValue() Value           { return Value{Type: TypeNull} }
func IntValue(v int64) Value     { return Value{Type: TypeInt, Int: v} }
func FloatValue(v float64) Value { return Value{Type: TypeFloat, Float: v} }
func StringValue(v string) Value { return Value{Type: TypeString, Str: v} }
func BytesValue(v []byte) Value  { return Value{Type: TypeBytes, Bytes: v} }

func BoolValue(v bool) Value {
	if v {
		return IntValue(1)
	}
	return IntValue(0)
}

// FromInterface converts a literal or bound parameter into a Value. It
// accepts nil, the Go integer and float kinds, bool, string and []byte.
func FromInterface(v interface{}) (Value, error) {
	switch v := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return v, nil
	case int64:
		return IntValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int32:
		return IntValue(int64(v)), nil
	case uint32:
		return IntValue(int64(v)), nil
	case float64:
		return FloatValue(v), nil
	case float32:
		return FloatValue(float64(v)), nil
	case bool:
		return BoolValue(v), nil
	case string:
		return StringValue(v), nil
	case []byte:
		return BytesValue(v), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", v)
}

// Interface returns the natural Go representation: nil, int64, float64,
// string or []byte.
func (v Value) Interface() interface{} {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeString:
		return v.Str
	case TypeBytes:
		return v.Bytes
	}
	return nil
}

// IsNull returns true if the value is NULL.
func (v Value) IsNull() bool { return v.Type == TypeNull }

// TypeName is the name typeof() reports.
func (v Value) TypeName() string {
	switch v.Type {
	case TypeInt:
		return "integer"
	case TypeFloat:
		return "real"
	case TypeString:
		return "text"
	case TypeBytes:
		return "blob"
	}
	return "null"
}

// StorageName is the upper-case class name used in datatype errors.
func (v Value) StorageName() string {
	return strings.ToUpper(v.TypeName())
}

// String returns a human-readable representation.
func (v Value) String() string {
	switch v.Type {
	case TypeNull:
		return "NULL"
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return FormatFloat(v.Float)
	case TypeString:
		return v.Str
	case TypeBytes:
		return fmt.Sprintf("%x", v.Bytes)
	default:
		return "?"
	}
}

// FormatFloat renders a REAL so that it always reads back as a REAL.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', 15, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

// Truth evaluates v in a boolean context. ok is false for NULL.
func (v Value) Truth() (truth bool, ok bool) {
	switch v.Type {
	case TypeNull:
		return false, false
	case TypeInt:
		return v.Int != 0, true
	case TypeFloat:
		return v.Float != 0, true
	}
	n := v.ToNumeric()
	if n.Type == TypeInt {
		return n.Int != 0, true
	}
	return n.Float != 0, true
}

// ToNumeric converts v for arithmetic. Text is parsed as a number when
// possible and otherwise becomes 0, as do blobs. NULL stays NULL.
func (v Value) ToNumeric() Value {
	switch v.Type {
	case TypeNull, TypeInt, TypeFloat:
		return v
	case TypeString:
		if n, ok := parseNumeric(strings.TrimSpace(v.Str)); ok {
			return n
		}
		return IntValue(0)
	}
	return IntValue(0)
}

func parseNumeric(s string) (Value, bool) {
	if s == "" {
		return Value{}, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return FloatValue(f), true
	}
	return Value{}, false
}

// exactInt reports whether f is an integer representable as int64.
func exactInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
		return 0, false
	}
	return int64(f), true
}

// Equal returns true when the two values are equal (NULL != NULL per SQL semantics).
func (v Value) Equal(other Value) bool {
	if v.Type == TypeNull || other.Type == TypeNull {
		return false
	}
	return Compare(v, other) == 0
}

// Compare compares two Values with the binary collation.
func Compare(a, b Value) int {
	return CompareCollated(a, b, "binary")
}

// CompareCollated compares two Values, using the named collation for text.
// NULL sorts first; numbers compare numerically across INTEGER and REAL;
// otherwise the storage class decides.
func CompareCollated(a, b Value, collation string) int {
	if a.Type == TypeNull && b.Type == TypeNull {
		return 0
	}
	if a.Type == TypeNull {
		return -1
	}
	if b.Type == TypeNull {
		return 1
	}

	if isNumber(a) && isNumber(b) {
		if a.Type == TypeInt && b.Type == TypeInt {
			return cmpInt(a.Int, b.Int)
		}
		return cmpFloat(asFloat(a), asFloat(b))
	}

	if a.Type == b.Type {
		switch a.Type {
		case TypeString:
			return CompareText(a.Str, b.Str, collation)
		case TypeBytes:
			return bytes.Compare(a.Bytes, b.Bytes)
		}
	}

	return cmpInt(int64(classOf(a)), int64(classOf(b)))
}

func isNumber(v Value) bool { return v.Type == TypeInt || v.Type == TypeFloat }

func classOf(v Value) ValueType {
	if v.Type == TypeFloat {
		return TypeInt
	}
	return v.Type
}

func asFloat(v Value) float64 {
	if v.Type == TypeInt {
		return float64(v.Int)
	}
	return v.Float
}

// CompareText compares two strings under a collation: binary, nocase
// (ASCII case folding) or rtrim (trailing spaces ignored).
func CompareText(a, b, collation string) int {
	switch collation {
	case "nocase":
		return compareNoCase(a, b)
	case "rtrim":
		return strings.Compare(strings.TrimRight(a, " "), strings.TrimRight(b, " "))
	}
	return strings.Compare(a, b)
}

func compareNoCase(a, b string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		ca, cb := foldASCII(a[i]), foldASCII(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	return cmpInt(int64(len(a)), int64(len(b)))
}

func foldASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func cmpInt(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
