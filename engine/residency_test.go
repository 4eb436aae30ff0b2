package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamLayerToDeviceIdempotentWithinGeneration(t *testing.T) {
	w := NewTensor(4, 4)
	l := newParamLayer("test_layer", w)
	alloc := NewReusedAllocator(1 << 20)
	stream := NewStream("test")
	defer stream.Close()

	require.NoError(t, l.ToDevice(alloc, stream))
	firstGen := l.allocGen
	require.NoError(t, l.ToDevice(alloc, stream))
	assert.Equal(t, firstGen, l.allocGen)
	assert.Equal(t, StateDevice, l.State())
	require.NoError(t, stream.Synchronize())
}

func TestParamLayerToDeviceReuploadsAfterReset(t *testing.T) {
	w := NewTensor(4, 4)
	l := newParamLayer("test_layer", w)
	alloc := NewReusedAllocator(1 << 20)
	stream := NewStream("test")
	defer stream.Close()

	require.NoError(t, l.ToDevice(alloc, stream))
	require.NoError(t, stream.Synchronize())
	genBefore := l.allocGen

	alloc.Reset()
	require.NoError(t, l.ToDevice(alloc, stream))
	require.NoError(t, stream.Synchronize())
	assert.NotEqual(t, genBefore, l.allocGen)
}

func TestParamLayerTryPinnedThenRemoveHostData(t *testing.T) {
	w := NewTensor(2, 2)
	l := newParamLayer("test_layer", w)

	require.NoError(t, l.TryPinned())
	assert.Equal(t, StatePinnedHost, l.State())
	assert.True(t, l.pinned)

	l.RemoveHostData()
	assert.False(t, l.pinned)
	assert.Nil(t, l.host)
}

func TestParamLayerTryPinnedNoopWhenAlreadyDevice(t *testing.T) {
	w := NewTensor(2, 2)
	l := newParamLayer("test_layer", w)
	alloc := NewReusedAllocator(1 << 20)
	stream := NewStream("test")
	defer stream.Close()

	require.NoError(t, l.ToDevice(alloc, stream))
	require.NoError(t, stream.Synchronize())
	require.NoError(t, l.TryPinned())
	assert.Equal(t, StateDevice, l.State())
}
