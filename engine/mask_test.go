package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputMaskBlocksPaddedPositions(t *testing.T) {
	attn := [][]int{{1, 1, 0}}
	selfMask, crossMask := InputMask(attn)

	assert.Equal(t, float32(0), crossMask.At(0, 0))
	assert.Equal(t, float32(0), crossMask.At(0, 1))
	assert.Equal(t, negInf, crossMask.At(0, 2))

	for i := 0; i < 3; i++ {
		assert.Equal(t, float32(0), selfMask.At(0, i, 0))
		assert.Equal(t, negInf, selfMask.At(0, i, 2))
	}
}

func TestInputMaskAllOnesIsAllZero(t *testing.T) {
	attn := [][]int{{1, 1, 1, 1}}
	selfMask, crossMask := InputMask(attn)
	for _, v := range selfMask.Data {
		assert.Equal(t, float32(0), v)
	}
	for _, v := range crossMask.Data {
		assert.Equal(t, float32(0), v)
	}
}
