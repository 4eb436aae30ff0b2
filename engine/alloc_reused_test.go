package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReusedAllocatorBumpAndAlign(t *testing.T) {
	a := NewReusedAllocator(128)
	s1, err := a.Alloc(10, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s1.Offset)

	s2, err := a.Alloc(10, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(16), s2.Offset) // aligned up from 10 to 16
}

func TestReusedAllocatorOutOfPool(t *testing.T) {
	a := NewReusedAllocator(16)
	_, err := a.Alloc(17, 1)
	require.Error(t, err)
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrOutOfPool, ee.Kind)
}

func TestReusedAllocatorResetInvalidatesSlices(t *testing.T) {
	a := NewReusedAllocator(64)
	s, err := a.Alloc(8, 1)
	require.NoError(t, err)
	assert.True(t, a.Valid(s))

	a.Reset()
	assert.False(t, a.Valid(s))

	s2, err := a.Alloc(8, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s2.Offset)
	assert.True(t, a.Valid(s2))
}
