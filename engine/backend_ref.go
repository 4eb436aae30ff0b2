package engine

import "math"

// ReferenceBackend is a deterministic, dependency-free CPU implementation
// of Backend. It exists to drive the compute pipeline end to end in tests
// and the CLI demo; it is not tuned for performance and makes no claim to
// numerical parity with any particular GPU math library beyond standard
// scaled dot-product attention and RMS normalization.
type ReferenceBackend struct{}

// NewReferenceBackend constructs the reference CPU backend.
func NewReferenceBackend() *ReferenceBackend { return &ReferenceBackend{} }

const rmsEps = 1e-6

func (ReferenceBackend) Embed(table *Tensor, ids [][]int) *Tensor {
	batch := len(ids)
	seq := 0
	if batch > 0 {
		seq = len(ids[0])
	}
	d := table.Shape[1]
	out := NewTensor(batch, seq, d)
	for b := 0; b < batch; b++ {
		for s := 0; s < seq; s++ {
			id := ids[b][s]
			for k := 0; k < d; k++ {
				out.Set(table.At(id, k), b, s, k)
			}
		}
	}
	return out
}

func (ReferenceBackend) RMSNorm(x, weight *Tensor) *Tensor {
	out := NewTensor(x.Shape...)
	d := x.Shape[len(x.Shape)-1]
	rows := x.Numel() / d
	for r := 0; r < rows; r++ {
		base := r * d
		var sumSq float64
		for k := 0; k < d; k++ {
			v := float64(x.Data[base+k])
			sumSq += v * v
		}
		rms := math.Sqrt(sumSq/float64(d) + rmsEps)
		for k := 0; k < d; k++ {
			out.Data[base+k] = float32(float64(x.Data[base+k])/rms) * weight.Data[k]
		}
	}
	return out
}

func (ReferenceBackend) Linear(x, weight *Tensor) *Tensor {
	din := weight.Shape[0]
	dout := weight.Shape[1]
	outShape := append([]int(nil), x.Shape[:len(x.Shape)-1]...)
	outShape = append(outShape, dout)
	out := NewTensor(outShape...)
	rows := x.Numel() / din
	for r := 0; r < rows; r++ {
		xBase := r * din
		oBase := r * dout
		for j := 0; j < dout; j++ {
			var acc float64
			for k := 0; k < din; k++ {
				acc += float64(x.Data[xBase+k]) * float64(weight.Data[k*dout+j])
			}
			out.Data[oBase+j] = float32(acc)
		}
	}
	return out
}

func (ReferenceBackend) Add(a, b *Tensor) *Tensor {
	out := NewTensor(a.Shape...)
	for i := range a.Data {
		out.Data[i] = a.Data[i] + b.Data[i]
	}
	return out
}

func (ReferenceBackend) Relu(x *Tensor) *Tensor {
	out := NewTensor(x.Shape...)
	for i, v := range x.Data {
		if v > 0 {
			out.Data[i] = v
		}
	}
	return out
}

func (ReferenceBackend) Softmax(x *Tensor) *Tensor {
	out := NewTensor(x.Shape...)
	d := x.Shape[len(x.Shape)-1]
	rows := x.Numel() / d
	for r := 0; r < rows; r++ {
		base := r * d
		max := float32(math.Inf(-1))
		for k := 0; k < d; k++ {
			if x.Data[base+k] > max {
				max = x.Data[base+k]
			}
		}
		var sum float64
		for k := 0; k < d; k++ {
			e := math.Exp(float64(x.Data[base+k] - max))
			out.Data[base+k] = float32(e)
			sum += e
		}
		for k := 0; k < d; k++ {
			out.Data[base+k] = float32(float64(out.Data[base+k]) / sum)
		}
	}
	return out
}

// attendRows implements scaled dot-product attention for one (batch,head)
// pair given flat query/key/value rows and an additive bias function; it
// is shared by SelfAttention, DecoderSelfAttentionStep and
// CrossAttentionStep below.
func attendRows(q []float32, keys [][]float32, values [][]float32, dkv int, bias func(j int) float32) []float32 {
	scale := 1.0 / math.Sqrt(float64(dkv))
	scores := make([]float32, len(keys))
	maxScore := float32(math.Inf(-1))
	for j, k := range keys {
		var acc float64
		for d := 0; d < dkv; d++ {
			acc += float64(q[d]) * float64(k[d])
		}
		s := float32(acc*scale) + bias(j)
		scores[j] = s
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for j := range scores {
		e := math.Exp(float64(scores[j] - maxScore))
		scores[j] = float32(e)
		sum += e
	}
	out := make([]float32, dkv)
	for j, w := range scores {
		wn := float32(float64(w) / sum)
		for d := 0; d < dkv; d++ {
			out[d] += wn * values[j][d]
		}
	}
	return out
}

func (rb ReferenceBackend) SelfAttention(x, mask, posBias, wq, wk, wv, wo *Tensor, heads, dkv int) *Tensor {
	batch, seq, d := x.Shape[0], x.Shape[1], x.Shape[2]
	q := rb.Linear(x, wq) // (batch,seq,heads*dkv)
	k := rb.Linear(x, wk)
	v := rb.Linear(x, wv)

	ctx := NewTensor(batch, seq, heads*dkv)
	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			keys := make([][]float32, seq)
			values := make([][]float32, seq)
			for j := 0; j < seq; j++ {
				keys[j] = k.Data[(b*seq+j)*heads*dkv+h*dkv : (b*seq+j)*heads*dkv+h*dkv+dkv]
				values[j] = v.Data[(b*seq+j)*heads*dkv+h*dkv : (b*seq+j)*heads*dkv+h*dkv+dkv]
			}
			for i := 0; i < seq; i++ {
				qi := q.Data[(b*seq+i)*heads*dkv+h*dkv : (b*seq+i)*heads*dkv+h*dkv+dkv]
				bias := func(j int) float32 {
					return mask.At(b, i, j) + posBias.At(0, h, i, j)
				}
				o := attendRows(qi, keys, values, dkv, bias)
				copy(ctx.Data[(b*seq+i)*heads*dkv+h*dkv:], o)
			}
		}
	}
	_ = d
	return rb.Linear(ctx, wo)
}

func (rb ReferenceBackend) DecoderSelfAttentionStep(x, pastK, pastV *Tensor, stepPos int, posBiasRow, wq, wk, wv, wo *Tensor, heads, dkv int) *Tensor {
	batch := x.Shape[0]
	q := rb.Linear(x, wq) // (batch,1,heads*dkv)
	kNew := rb.Linear(x, wk)
	vNew := rb.Linear(x, wv)
	lmax := pastK.Shape[3]

	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			for d := 0; d < dkv; d++ {
				pastK.Set(kNew.At(b, 0, h*dkv+d), b, h, d, stepPos)
				pastV.Set(vNew.At(b, 0, h*dkv+d), b, h, d, stepPos)
			}
		}
	}

	ctx := NewTensor(batch, 1, heads*dkv)
	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			keys := make([][]float32, stepPos+1)
			values := make([][]float32, stepPos+1)
			for j := 0; j <= stepPos; j++ {
				kk := make([]float32, dkv)
				vv := make([]float32, dkv)
				for d := 0; d < dkv; d++ {
					kk[d] = pastK.At(b, h, d, j)
					vv[d] = pastV.At(b, h, d, j)
				}
				keys[j] = kk
				values[j] = vv
			}
			qi := q.Data[(b)*heads*dkv+h*dkv : (b)*heads*dkv+h*dkv+dkv]
			bias := func(j int) float32 {
				_ = lmax
				return posBiasRow.At(0, h, 0, j)
			}
			o := attendRows(qi, keys, values, dkv, bias)
			copy(ctx.Data[b*heads*dkv+h*dkv:], o)
		}
	}
	return rb.Linear(ctx, wo)
}

func (rb ReferenceBackend) CrossAttentionStep(x, encK, encV, encMask, wq, wo *Tensor, heads, dkv int) *Tensor {
	batch := x.Shape[0]
	seqIn := encK.Shape[3]
	q := rb.Linear(x, wq) // (batch,1,heads*dkv)

	ctx := NewTensor(batch, 1, heads*dkv)
	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			keys := make([][]float32, seqIn)
			values := make([][]float32, seqIn)
			for j := 0; j < seqIn; j++ {
				kk := make([]float32, dkv)
				vv := make([]float32, dkv)
				for d := 0; d < dkv; d++ {
					kk[d] = encK.At(b, h, d, j)
					vv[d] = encV.At(b, h, d, j)
				}
				keys[j] = kk
				values[j] = vv
			}
			qi := q.Data[b*heads*dkv+h*dkv : b*heads*dkv+h*dkv+dkv]
			bias := func(j int) float32 { return encMask.At(b, j) }
			o := attendRows(qi, keys, values, dkv, bias)
			copy(ctx.Data[b*heads*dkv+h*dkv:], o)
		}
	}
	return rb.Linear(ctx, wo)
}

func (rb ReferenceBackend) FFN(x, wi, wo *Tensor) *Tensor {
	return rb.Linear(rb.Relu(rb.Linear(x, wi)), wo)
}
