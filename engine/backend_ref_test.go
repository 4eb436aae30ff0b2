package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceBackendRMSNormUnitWeight(t *testing.T) {
	be := ReferenceBackend{}
	x := NewTensor(1, 2)
	x.Data = []float32{3, 4}
	w := NewTensor(2)
	w.Data = []float32{1, 1}

	out := be.RMSNorm(x, w)
	rms := math.Sqrt((9.0+16.0)/2.0 + rmsEps)
	assert.InDelta(t, 3/rms, out.Data[0], 1e-4)
	assert.InDelta(t, 4/rms, out.Data[1], 1e-4)
}

func TestReferenceBackendLinearIdentity(t *testing.T) {
	be := ReferenceBackend{}
	x := NewTensor(1, 2)
	x.Data = []float32{1, 2}
	w := NewTensor(2, 2)
	w.Data = []float32{1, 0, 0, 1} // identity

	out := be.Linear(x, w)
	assert.Equal(t, []float32{1, 2}, out.Data)
}

func TestReferenceBackendSoftmaxSumsToOne(t *testing.T) {
	be := ReferenceBackend{}
	x := NewTensor(1, 4)
	x.Data = []float32{1, 2, 3, 4}
	out := be.Softmax(x)
	var sum float64
	for _, v := range out.Data {
		sum += float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestReferenceBackendReluZeroesNegatives(t *testing.T) {
	be := ReferenceBackend{}
	x := NewTensor(4)
	x.Data = []float32{-1, 0, 2, -3}
	out := be.Relu(x)
	assert.Equal(t, []float32{0, 0, 2, 0}, out.Data)
}

func TestAttendRowsSingleKeyReturnsItsValue(t *testing.T) {
	q := []float32{1, 0}
	keys := [][]float32{{1, 0}}
	values := [][]float32{{5, 6}}
	out := attendRows(q, keys, values, 2, func(int) float32 { return 0 })
	assert.InDeltaSlice(t, []float32{5, 6}, out, 1e-5)
}

func TestReferenceBackendAddElementwise(t *testing.T) {
	be := ReferenceBackend{}
	a := NewTensor(3)
	a.Data = []float32{1, 2, 3}
	b := NewTensor(3)
	b.Data = []float32{10, 20, 30}
	out := be.Add(a, b)
	assert.Equal(t, []float32{11, 22, 33}, out.Data)
}
