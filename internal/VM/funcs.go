package VM

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

func compareOp(op OpCode, l, r DS.Value, coll string) DS.Value {
	if coll == "" {
		coll = IS.DefaultCollation
	}
	switch op {
	case OpIs:
		if l.IsNull() || r.IsNull() {
			return DS.BoolValue(l.IsNull() && r.IsNull())
		}
		return DS.BoolValue(DS.CompareCollated(l, r, coll) == 0)
	case OpIsNot:
		if l.IsNull() || r.IsNull() {
			return DS.BoolValue(l.IsNull() != r.IsNull())
		}
		return DS.BoolValue(DS.CompareCollated(l, r, coll) != 0)
	}
	if l.IsNull() || r.IsNull() {
		return DS.NullValue()
	}
	c := DS.CompareCollated(l, r, coll)
	switch op {
	case OpEq:
		return DS.BoolValue(c == 0)
	case OpNe:
		return DS.BoolValue(c != 0)
	case OpLt:
		return DS.BoolValue(c < 0)
	case OpLe:
		return DS.BoolValue(c <= 0)
	case OpGt:
		return DS.BoolValue(c > 0)
	default:
		return DS.BoolValue(c >= 0)
	}
}

func arith(op OpCode, l, r DS.Value) DS.Value {
	if l.IsNull() || r.IsNull() {
		return DS.NullValue()
	}
	l, r = l.ToNumeric(), r.ToNumeric()
	if l.Type == DS.TypeInt && r.Type == DS.TypeInt {
		a, b := l.Int, r.Int
		switch op {
		case OpAdd:
			if s := a + b; (s > a) == (b > 0) {
				return DS.IntValue(s)
			}
		case OpSubtract:
			if s := a - b; (s < a) == (b > 0) {
				return DS.IntValue(s)
			}
		case OpMultiply:
			if a == 0 || b == 0 {
				return DS.IntValue(0)
			}
			if p := a * b; p/b == a && !(a == -1 && b == math.MinInt64) && !(b == -1 && a == math.MinInt64) {
				return DS.IntValue(p)
			}
		case OpDivide:
			if b == 0 {
				return DS.NullValue()
			}
			if !(a == math.MinInt64 && b == -1) {
				return DS.IntValue(a / b)
			}
		case OpRemainder:
			if b == 0 {
				return DS.NullValue()
			}
			if b == -1 {
				return DS.IntValue(0)
			}
			return DS.IntValue(a % b)
		}
	}
	a, b := toFloat(l), toFloat(r)
	switch op {
	case OpAdd:
		return DS.FloatValue(a + b)
	case OpSubtract:
		return DS.FloatValue(a - b)
	case OpMultiply:
		return DS.FloatValue(a * b)
	case OpDivide:
		if b == 0 {
			return DS.NullValue()
		}
		return DS.FloatValue(a / b)
	default:
		ia, ib := int64(a), int64(b)
		if ib == 0 {
			return DS.NullValue()
		}
		if ib == -1 {
			return DS.FloatValue(0)
		}
		return DS.FloatValue(float64(ia % ib))
	}
}

func toFloat(v DS.Value) float64 {
	if v.Type == DS.TypeInt {
		return float64(v.Int)
	}
	return v.Float
}

func negate(v DS.Value) DS.Value {
	if v.IsNull() {
		return v
	}
	v = v.ToNumeric()
	if v.Type == DS.TypeInt {
		if v.Int == math.MinInt64 {
			return DS.FloatValue(-float64(v.Int))
		}
		return DS.IntValue(-v.Int)
	}
	return DS.FloatValue(-v.Float)
}

// logic implements three-valued AND / OR.
func logic(op OpCode, l, r DS.Value) DS.Value {
	lt, lok := l.Truth()
	rt, rok := r.Truth()
	if op == OpAnd {
		if (lok && !lt) || (rok && !rt) {
			return DS.BoolValue(false)
		}
		if lok && rok {
			return DS.BoolValue(true)
		}
		return DS.NullValue()
	}
	if (lok && lt) || (rok && rt) {
		return DS.BoolValue(true)
	}
	if lok && rok {
		return DS.BoolValue(false)
	}
	return DS.NullValue()
}

// textOf renders v as text the way string operators see it.
func textOf(v DS.Value) string {
	if v.Type == DS.TypeBytes {
		return string(v.Bytes)
	}
	return v.String()
}

func inOp(lhs DS.Value, list []DS.Value, coll string) DS.Value {
	if lhs.IsNull() {
		return DS.NullValue()
	}
	if coll == "" {
		coll = IS.DefaultCollation
	}
	sawNull := false
	for _, v := range list {
		if v.IsNull() {
			sawNull = true
			continue
		}
		if DS.CompareCollated(lhs, v, coll) == 0 {
			return DS.BoolValue(true)
		}
	}
	if sawNull {
		return DS.NullValue()
	}
	return DS.BoolValue(false)
}

// castValue implements CAST(v AS typ), choosing the target class by the
// type name's affinity.
func castValue(v DS.Value, typ string) DS.Value {
	if v.IsNull() {
		return v
	}
	switch IS.AffinityOf(typ) {
	case IS.AffinityText:
		return DS.StringValue(textOf(v))
	case IS.AffinityBlob:
		if v.Type == DS.TypeBytes {
			return v
		}
		return DS.BytesValue([]byte(textOf(v)))
	case IS.AffinityInteger:
		return castInteger(v)
	case IS.AffinityReal:
		switch v.Type {
		case DS.TypeInt:
			return DS.FloatValue(float64(v.Int))
		case DS.TypeFloat:
			return v
		}
		f, _ := strconv.ParseFloat(numericPrefix(textOf(v), true), 64)
		return DS.FloatValue(f)
	default:
		if v.Type == DS.TypeInt || v.Type == DS.TypeFloat {
			return v
		}
		n := DS.ApplyAffinity(DS.StringValue(strings.TrimSpace(textOf(v))), DS.AffinityNumeric)
		if n.Type == DS.TypeString {
			return castInteger(v)
		}
		return n
	}
}

func castInteger(v DS.Value) DS.Value {
	switch v.Type {
	case DS.TypeInt:
		return v
	case DS.TypeFloat:
		switch {
		case math.IsNaN(v.Float):
			return DS.IntValue(0)
		case v.Float >= math.MaxInt64:
			return DS.IntValue(math.MaxInt64)
		case v.Float <= math.MinInt64:
			return DS.IntValue(math.MinInt64)
		}
		return DS.IntValue(int64(v.Float))
	}
	i, _ := strconv.ParseInt(numericPrefix(textOf(v), false), 10, 64)
	return DS.IntValue(i)
}

// numericPrefix returns the longest leading substring of s, after
// whitespace, that parses as an integer (or a real when real is set).
func numericPrefix(s string, real bool) string {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := func() {
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
	}
	digits()
	if real {
		if end < len(s) && s[end] == '.' {
			end++
			digits()
		}
		if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
			save := end
			end++
			if end < len(s) && (s[end] == '+' || s[end] == '-') {
				end++
			}
			before := end
			digits()
			if end == before {
				end = save
			}
		}
	}
	p := s[:end]
	if p == "" || p == "+" || p == "-" || p == "." {
		return "0"
	}
	return strings.TrimSuffix(p, ".")
}

// callFunction evaluates a scalar function over args.
func callFunction(name string, args []DS.Value) (DS.Value, error) {
	arity := func(min, max int) error {
		if len(args) < min || (max >= 0 && len(args) > max) {
			return SVDB.Errorf(SVDB.SVDB_ERROR, "wrong number of arguments to function %s()", name)
		}
		return nil
	}
	switch name {
	case "lower", "upper":
		if err := arity(1, 1); err != nil {
			return DS.Value{}, err
		}
		if args[0].IsNull() {
			return args[0], nil
		}
		if name == "lower" {
			return DS.StringValue(strings.ToLower(textOf(args[0]))), nil
		}
		return DS.StringValue(strings.ToUpper(textOf(args[0]))), nil

	case "length":
		if err := arity(1, 1); err != nil {
			return DS.Value{}, err
		}
		switch args[0].Type {
		case DS.TypeNull:
			return args[0], nil
		case DS.TypeBytes:
			return DS.IntValue(int64(len(args[0].Bytes))), nil
		}
		return DS.IntValue(int64(utf8.RuneCountInString(textOf(args[0])))), nil

	case "abs":
		if err := arity(1, 1); err != nil {
			return DS.Value{}, err
		}
		v := args[0]
		if v.IsNull() {
			return v, nil
		}
		v = v.ToNumeric()
		if v.Type == DS.TypeInt {
			if v.Int == math.MinInt64 {
				return DS.Value{}, SVDB.NewError(SVDB.SVDB_ERROR, "integer overflow")
			}
			if v.Int < 0 {
				return DS.IntValue(-v.Int), nil
			}
			return v, nil
		}
		return DS.FloatValue(math.Abs(v.Float)), nil

	case "coalesce", "ifnull":
		if name == "ifnull" {
			if err := arity(2, 2); err != nil {
				return DS.Value{}, err
			}
		} else if err := arity(2, -1); err != nil {
			return DS.Value{}, err
		}
		for _, v := range args {
			if !v.IsNull() {
				return v, nil
			}
		}
		return DS.NullValue(), nil

	case "nullif":
		if err := arity(2, 2); err != nil {
			return DS.Value{}, err
		}
		if !args[0].IsNull() && !args[1].IsNull() && DS.Compare(args[0], args[1]) == 0 {
			return DS.NullValue(), nil
		}
		return args[0], nil

	case "typeof":
		if err := arity(1, 1); err != nil {
			return DS.Value{}, err
		}
		return DS.StringValue(args[0].TypeName()), nil

	case "substr", "substring":
		if err := arity(2, 3); err != nil {
			return DS.Value{}, err
		}
		return substr(args), nil

	case "trim", "ltrim", "rtrim":
		if err := arity(1, 2); err != nil {
			return DS.Value{}, err
		}
		if args[0].IsNull() || (len(args) == 2 && args[1].IsNull()) {
			return DS.NullValue(), nil
		}
		cut := " "
		if len(args) == 2 {
			cut = textOf(args[1])
		}
		s := textOf(args[0])
		switch name {
		case "ltrim":
			s = strings.TrimLeft(s, cut)
		case "rtrim":
			s = strings.TrimRight(s, cut)
		default:
			s = strings.Trim(s, cut)
		}
		return DS.StringValue(s), nil

	case "replace":
		if err := arity(3, 3); err != nil {
			return DS.Value{}, err
		}
		for _, a := range args {
			if a.IsNull() {
				return DS.NullValue(), nil
			}
		}
		old := textOf(args[1])
		if old == "" {
			return DS.StringValue(textOf(args[0])), nil
		}
		return DS.StringValue(strings.ReplaceAll(textOf(args[0]), old, textOf(args[2]))), nil

	case "min", "max":
		if err := arity(2, -1); err != nil {
			return DS.Value{}, err
		}
		best := args[0]
		for _, v := range args {
			if v.IsNull() {
				return DS.NullValue(), nil
			}
			c := DS.Compare(v, best)
			if (name == "min" && c < 0) || (name == "max" && c > 0) {
				best = v
			}
		}
		return best, nil
	}
	return DS.Value{}, SVDB.Errorf(SVDB.SVDB_ERROR, "no such function: %s", name)
}

// substr uses 1-based character positions; a negative start counts from
// the end and a negative length takes characters before start.
func substr(args []DS.Value) DS.Value {
	for _, a := range args {
		if a.IsNull() {
			return DS.NullValue()
		}
	}
	runes := []rune(textOf(args[0]))
	n := int64(len(runes))
	start := castInteger(args[1]).Int
	length := n + 1
	if len(args) == 3 {
		length = castInteger(args[2]).Int
	}
	if start < 0 {
		start = n + start + 1
		if start < 1 {
			length += start - 1
			start = 1
		}
	} else if start == 0 {
		start = 1
		length--
	}
	if length < 0 {
		start += length
		length = -length
		if start < 1 {
			length += start - 1
			start = 1
		}
	}
	from := start - 1
	to := from + length
	if from > n {
		from = n
	}
	if to > n {
		to = n
	}
	if to < from {
		to = from
	}
	return DS.StringValue(string(runes[from:to]))
}
