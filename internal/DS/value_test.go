package DS

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareCollated(t *testing.T) {
	cases := []struct {
		a, b Value
		coll string
		want int
	}{
		{NullValue(), NullValue(), "binary", 0},
		{NullValue(), IntValue(1), "binary", -1},
		{IntValue(2), FloatValue(2.0), "binary", 0},
		{IntValue(2), FloatValue(2.5), "binary", -1},
		{FloatValue(10), StringValue("1"), "binary", -1},
		{StringValue("z"), BytesValue([]byte("a")), "binary", -1},
		{StringValue("Y"), StringValue("y"), "binary", -1},
		{StringValue("Y"), StringValue("y"), "nocase", 0},
		{StringValue("abc"), StringValue("ABD"), "nocase", -1},
		{StringValue("x  "), StringValue("x"), "rtrim", 0},
		{StringValue("x  "), StringValue("x"), "binary", 1},
		{IntValue(math.MaxInt64), IntValue(math.MaxInt64 - 1), "binary", 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CompareCollated(c.a, c.b, c.coll), "%v vs %v (%s)", c.a, c.b, c.coll)
	}
	assert.False(t, NullValue().Equal(NullValue()))
	assert.True(t, IntValue(3).Equal(FloatValue(3)))
}

func TestApplyAffinity(t *testing.T) {
	assert.Equal(t, IntValue(12), ApplyAffinity(StringValue(" 12 "), AffinityInteger))
	assert.Equal(t, IntValue(3), ApplyAffinity(FloatValue(3.0), AffinityNumeric))
	assert.Equal(t, FloatValue(3.5), ApplyAffinity(StringValue("3.5"), AffinityInteger))
	assert.Equal(t, StringValue("abc"), ApplyAffinity(StringValue("abc"), AffinityInteger))
	assert.Equal(t, FloatValue(4), ApplyAffinity(IntValue(4), AffinityReal))
	assert.Equal(t, StringValue("4"), ApplyAffinity(IntValue(4), AffinityText))
	assert.Equal(t, StringValue("1.5"), ApplyAffinity(FloatValue(1.5), AffinityText))
	assert.Equal(t, IntValue(4), ApplyAffinity(IntValue(4), AffinityBlob))
}

func TestCheckStrict(t *testing.T) {
	v, ok := CheckStrict(StringValue("7"), "INTEGER")
	require.True(t, ok)
	require.Equal(t, IntValue(7), v)

	_, ok = CheckStrict(StringValue("seven"), "INT")
	require.False(t, ok)
	_, ok = CheckStrict(IntValue(1), "BLOB")
	require.False(t, ok)
	_, ok = CheckStrict(NullValue(), "BLOB")
	require.True(t, ok)
	v, ok = CheckStrict(IntValue(2), "REAL")
	require.True(t, ok)
	require.Equal(t, FloatValue(2), v)
	_, ok = CheckStrict(BytesValue([]byte{1}), "ANY")
	require.True(t, ok)
}

func TestValueConversions(t *testing.T) {
	v, err := FromInterface(int(5))
	require.NoError(t, err)
	require.Equal(t, IntValue(5), v)
	v, err = FromInterface(true)
	require.NoError(t, err)
	require.Equal(t, IntValue(1), v)
	_, err = FromInterface(struct{}{})
	require.Error(t, err)

	require.Equal(t, "2.0", FloatValue(2).String())
	require.Equal(t, "0.1", FloatValue(0.1).String())
	require.Equal(t, "real", FloatValue(1).TypeName())
	require.Equal(t, "TEXT", StringValue("").StorageName())
	require.Nil(t, NullValue().Interface())

	truth, ok := StringValue("0.0").Truth()
	require.True(t, ok)
	require.False(t, truth)
	truth, ok = StringValue("2").Truth()
	require.True(t, ok)
	require.True(t, truth)
	_, ok = NullValue().Truth()
	require.False(t, ok)
}
