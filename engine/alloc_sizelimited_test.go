package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeLimitedAllocatorAllocFree(t *testing.T) {
	a := NewSizeLimitedAllocator(100)
	h1, err := a.Alloc(40)
	require.NoError(t, err)
	h2, err := a.Alloc(40)
	require.NoError(t, err)
	assert.Equal(t, int64(80), a.Used())

	require.NoError(t, a.Free(h1))
	assert.Equal(t, int64(40), a.Used())

	h3, err := a.Alloc(40)
	require.NoError(t, err)
	assert.Equal(t, int64(80), a.Used())
	_ = h2
	_ = h3
}

func TestSizeLimitedAllocatorOverLimit(t *testing.T) {
	a := NewSizeLimitedAllocator(16)
	_, err := a.Alloc(17)
	require.Error(t, err)
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrOverLimit, ee.Kind)
}

func TestSizeLimitedAllocatorCoalesceAfterFreeAll(t *testing.T) {
	a := NewSizeLimitedAllocator(64)
	h1, err := a.Alloc(16)
	require.NoError(t, err)
	h2, err := a.Alloc(16)
	require.NoError(t, err)
	h3, err := a.Alloc(16)
	require.NoError(t, err)

	require.NoError(t, a.Free(h2))
	require.NoError(t, a.Free(h1))
	require.NoError(t, a.Free(h3))
	assert.Equal(t, int64(0), a.Used())

	// fully coalesced: a single 64-byte allocation should fit again.
	_, err = a.Alloc(64)
	require.NoError(t, err)
}

func TestSizeLimitedAllocatorDoubleFree(t *testing.T) {
	a := NewSizeLimitedAllocator(16)
	h, err := a.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, a.Free(h))
	require.Error(t, a.Free(h))
}
