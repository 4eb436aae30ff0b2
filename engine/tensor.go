package engine

// Tensor is a dense, row-major, n-dimensional array of float32 values.
//
// The engine models parameters and activations as half-precision on real
// hardware (spec §1: "half-precision weights and activations throughout").
// Go has no native float16 arithmetic type, and the GEMM/attention kernels
// themselves are an assumed external primitive (spec §1 out-of-scope), so
// Tensor stores values as float32 for the reference Backend's arithmetic
// and reports its on-device footprint as if every element were 2 bytes
// (NBytes), which is what the allocator hierarchy actually budgets against.
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor allocates a zero-filled Tensor of the given shape.
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	sh := make([]int, len(shape))
	copy(sh, shape)
	return &Tensor{Shape: sh, Data: make([]float32, n)}
}

// Numel returns the total element count.
func (t *Tensor) Numel() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// NBytes returns the half-precision on-device footprint of this tensor,
// i.e. 2 bytes per element.
func (t *Tensor) NBytes() int64 {
	return int64(t.Numel()) * 2
}

// strides computes row-major strides for Shape.
func (t *Tensor) strides() []int {
	s := make([]int, len(t.Shape))
	acc := 1
	for i := len(t.Shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= t.Shape[i]
	}
	return s
}

func (t *Tensor) offset(idx []int) int {
	st := t.strides()
	off := 0
	for i, v := range idx {
		off += v * st[i]
	}
	return off
}

// At returns the element at the given multi-index.
func (t *Tensor) At(idx ...int) float32 {
	return t.Data[t.offset(idx)]
}

// Set writes the element at the given multi-index.
func (t *Tensor) Set(v float32, idx ...int) {
	t.Data[t.offset(idx)] = v
}

// Transpose returns a new Tensor with axes permuted according to perm;
// perm[i] names which source axis becomes destination axis i. The result
// is a materialized copy, not a view, since the reference backend has no
// notion of strided views into device memory.
func (t *Tensor) Transpose(perm []int) *Tensor {
	newShape := make([]int, len(perm))
	for i, p := range perm {
		newShape[i] = t.Shape[p]
	}
	out := NewTensor(newShape...)
	srcIdx := make([]int, len(t.Shape))
	dstStrides := out.strides()
	var walk func(axis int)
	walk = func(axis int) {
		if axis == len(t.Shape) {
			dstOff := 0
			for i, p := range perm {
				dstOff += srcIdx[p] * dstStrides[i]
			}
			out.Data[dstOff] = t.Data[t.offset(srcIdx)]
			return
		}
		for i := 0; i < t.Shape[axis]; i++ {
			srcIdx[axis] = i
			walk(axis + 1)
		}
	}
	walk(0)
	return out
}

// Reshape returns a new Tensor sharing no data with t but with a
// different shape over the same row-major element order; the product of
// the new shape must equal Numel().
func (t *Tensor) Reshape(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != t.Numel() {
		panic("engine: Reshape element count mismatch")
	}
	sh := make([]int, len(shape))
	copy(sh, shape)
	return &Tensor{Shape: sh, Data: append([]float32(nil), t.Data...)}
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{Shape: append([]int(nil), t.Shape...), Data: append([]float32(nil), t.Data...)}
	return out
}
