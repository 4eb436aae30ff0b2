package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensorNBytesHalfPrecision(t *testing.T) {
	tn := NewTensor(2, 3, 4)
	assert.Equal(t, 24, tn.Numel())
	assert.Equal(t, int64(48), tn.NBytes())
}

func TestTensorAtSet(t *testing.T) {
	tn := NewTensor(2, 2)
	tn.Set(1.5, 0, 1)
	assert.Equal(t, float32(1.5), tn.At(0, 1))
	assert.Equal(t, float32(0), tn.At(1, 0))
}

func TestTensorTransposeRoundTrip(t *testing.T) {
	tn := NewTensor(2, 3)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			tn.Set(float32(i*10+j), i, j)
		}
	}
	tr := tn.Transpose([]int{1, 0})
	require.Equal(t, []int{3, 2}, tr.Shape)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, tn.At(i, j), tr.At(j, i))
		}
	}
}

func TestTensorReshapePreservesOrder(t *testing.T) {
	tn := NewTensor(2, 3)
	for i := range tn.Data {
		tn.Data[i] = float32(i)
	}
	r := tn.Reshape(6)
	assert.Equal(t, tn.Data, r.Data)
	assert.Panics(t, func() { tn.Reshape(4) })
}
