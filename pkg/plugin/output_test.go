package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutput_ReleaseOnce(t *testing.T) {
	calls := 0
	var freed []byte
	out := NewOutput([]byte("summary"), func(b []byte) {
		calls++
		freed = b
	})

	text, err := out.Text()
	require.NoError(t, err)
	assert.Equal(t, "summary", text)

	require.NoError(t, out.Release())
	assert.Equal(t, 1, calls)
	assert.Equal(t, []byte("summary"), freed)
	assert.True(t, out.Released())

	assert.ErrorIs(t, out.Release(), ErrDoubleRelease)
	assert.Equal(t, 1, calls, "plugin release must only be reached once")
}

func TestOutput_NoReadAfterRelease(t *testing.T) {
	out := TextOutput("data")
	require.NoError(t, out.Release())

	_, err := out.Text()
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	assert.Zero(t, out.Len())
}

func TestOutput_EmptyIsNotAnError(t *testing.T) {
	out := NewOutput([]byte{}, nil)
	text, err := out.Text()
	assert.NoError(t, err)
	assert.Equal(t, "", text)
}
