package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteGateTransitions(t *testing.T) {
	var g DeleteGate

	_, ok, err := g.begin()
	require.NoError(t, err)
	assert.False(t, ok, "confirm from idle is a no-op")

	require.NoError(t, g.Request("7"))
	id, armed := g.Pending()
	assert.True(t, armed)
	assert.Equal(t, ID("7"), id)

	require.NoError(t, g.Cancel())
	_, armed = g.Pending()
	assert.False(t, armed)

	require.NoError(t, g.Request("7"))
	id, ok, err = g.begin()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ID("7"), id)
	assert.True(t, g.Deleting())

	_, _, err = g.begin()
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, g.Cancel(), ErrBusy)
	assert.ErrorIs(t, g.Request("8"), ErrBusy)

	g.finish(false)
	assert.False(t, g.Deleting())
	id, armed = g.Pending()
	assert.True(t, armed)
	assert.Equal(t, ID("7"), id)

	_, _, _ = g.begin()
	g.finish(true)
	_, armed = g.Pending()
	assert.False(t, armed)
}
