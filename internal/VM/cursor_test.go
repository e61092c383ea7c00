package VM

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlvibe/upsertc/internal/DS"
)

func TestCursor_SeekRowid(t *testing.T) {
	store := DS.NewStore()
	ts, err := store.CreateTable("t")
	require.NoError(t, err)
	ts.Put(3, DS.EncodeRecord([]DS.Value{DS.StringValue("x"), DS.IntValue(7)}))

	ca := NewCursorArray(1)
	require.NoError(t, ca.Open(store, 0, CursorTable, "t"))
	c, err := ca.Get(0)
	require.NoError(t, err)

	require.True(t, c.SeekRowid(3))
	v, err := c.Column(1)
	require.NoError(t, err)
	assert.Equal(t, DS.IntValue(7), v)
	v, err = c.Column(5)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	// A miss leaves the cursor invalid; columns read as NULL.
	require.False(t, c.SeekRowid(4))
	assert.False(t, c.Valid)
	v, err = c.Column(0)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}
