package util

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// recovered runs fn and returns what it panicked with.
func recovered(fn func()) (r interface{}) {
	defer func() { r = recover() }()
	fn()
	return nil
}

func TestAssertf(t *testing.T) {
	require.Nil(t, recovered(func() { Assertf(len("test") == 4, "length is %d", 4) }))

	r := recovered(func() { Assertf(5 == 10, "value %d is not equal to %d", 5, 10) })
	err, ok := r.(error)
	require.True(t, ok, "panicked with %T", r)
	require.True(t, errors.HasAssertionFailure(err))
	require.Contains(t, err.Error(), "value 5 is not equal to 10")
}

func TestAssertNotNil(t *testing.T) {
	s := "test"
	require.Nil(t, recovered(func() { AssertNotNil(s, "string") }))
	require.Nil(t, recovered(func() { AssertNotNil(&s, "pointer") }))
	require.Nil(t, recovered(func() { AssertNotNil([]int{}, "slice") }))

	var ptr *string
	var m map[string]int
	var sl []int
	for name, v := range map[string]interface{}{"nil": nil, "pointer": ptr, "map": m, "slice": sl} {
		r := recovered(func() { AssertNotNil(v, name) })
		err, ok := r.(error)
		require.True(t, ok, "%s: panicked with %T", name, r)
		require.True(t, errors.HasAssertionFailure(err), name)
		require.Contains(t, err.Error(), name+" must not be nil")
	}
}
