package DS

import (
	"strings"
)

// Affinity codes, matching IS.Affinity.
const (
	AffinityBlob    byte = 'A'
	AffinityText    byte = 'B'
	AffinityNumeric byte = 'C'
	AffinityInteger byte = 'D'
	AffinityReal    byte = 'E'
)

// ApplyAffinity converts v toward a column's affinity when the conversion
// is lossless.
func ApplyAffinity(v Value, aff byte) Value {
	switch aff {
	case AffinityText:
		if isNumber(v) {
			return StringValue(v.String())
		}
	case AffinityInteger, AffinityNumeric:
		switch v.Type {
		case TypeString:
			if n, ok := parseNumeric(strings.TrimSpace(v.Str)); ok {
				if n.Type == TypeFloat {
					if i, exact := exactInt(n.Float); exact {
						return IntValue(i)
					}
				}
				return n
			}
		case TypeFloat:
			if i, exact := exactInt(v.Float); exact {
				return IntValue(i)
			}
		}
	case AffinityReal:
		switch v.Type {
		case TypeInt:
			return FloatValue(float64(v.Int))
		case TypeString:
			if n, ok := parseNumeric(strings.TrimSpace(v.Str)); ok {
				return FloatValue(asFloat(n))
			}
		}
	}
	return v
}

// CheckStrict coerces v to a STRICT column's declared type. ok is false when
// the value cannot be stored in the column.
func CheckStrict(v Value, declType string) (Value, bool) {
	if v.IsNull() {
		return v, true
	}
	switch strings.ToUpper(declType) {
	case "INT", "INTEGER":
		v = ApplyAffinity(v, AffinityInteger)
		return v, v.Type == TypeInt
	case "REAL":
		v = ApplyAffinity(v, AffinityReal)
		return v, v.Type == TypeFloat
	case "TEXT":
		v = ApplyAffinity(v, AffinityText)
		return v, v.Type == TypeString
	case "BLOB":
		return v, v.Type == TypeBytes
	case "ANY":
		return v, true
	}
	return v, false
}
