package DS

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/jgraettinger/cockroach-encoding/encoding"
)

// Records are a uvarint column count followed by, per column, a uvarint
// storage class and the class's ascending encoding. Floats are stored as
// their IEEE-754 bits.

// EncodeRecord serializes values into a physical record.
func EncodeRecord(values []Value) []byte {
	b := encoding.EncodeUvarintAscending(nil, uint64(len(values)))
	for _, v := range values {
		b = encoding.EncodeUvarintAscending(b, uint64(v.Type))
		switch v.Type {
		case TypeInt:
			b = encoding.EncodeVarintAscending(b, v.Int)
		case TypeFloat:
			b = encoding.EncodeUint64Ascending(b, math.Float64bits(v.Float))
		case TypeString:
			b = encoding.EncodeStringAscending(b, v.Str)
		case TypeBytes:
			b = encoding.EncodeBytesAscending(b, v.Bytes)
		}
	}
	return b
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(b []byte) ([]Value, error) {
	b, n, err := encoding.DecodeUvarintAscending(b)
	if err != nil {
		return nil, errors.Wrap(err, "decoding record header")
	}
	values := make([]Value, 0, n)
	for i := uint64(0); i < n; i++ {
		var tag uint64
		if b, tag, err = encoding.DecodeUvarintAscending(b); err != nil {
			return nil, errors.Wrapf(err, "decoding type of column %d", i)
		}
		var v Value
		switch ValueType(tag) {
		case TypeNull:
			v = NullValue()
		case TypeInt:
			var x int64
			b, x, err = encoding.DecodeVarintAscending(b)
			v = IntValue(x)
		case TypeFloat:
			var bits uint64
			b, bits, err = encoding.DecodeUint64Ascending(b)
			v = FloatValue(math.Float64frombits(bits))
		case TypeString:
			var raw []byte
			b, raw, err = encoding.DecodeBytesAscending(b, nil)
			v = StringValue(string(raw))
		case TypeBytes:
			var raw []byte
			b, raw, err = encoding.DecodeBytesAscending(b, nil)
			v = BytesValue(raw)
		default:
			return nil, errors.Newf("unknown storage class %d in column %d", tag, i)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "decoding column %d", i)
		}
		values = append(values, v)
	}
	if len(b) != 0 {
		return nil, errors.Newf("%d trailing bytes after record", len(b))
	}
	return values, nil
}
