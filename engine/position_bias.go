package engine

import "math"

// PositionBias holds the learned relative-position embedding table shared
// across all layers of one stack (encoder or decoder) and computes the
// (1, heads, qlen, klen) additive bias tensor added to attention logits
// (spec §4.5 step 3 / §4.6 step 2), grounded on T5's relative_position_bucket.
type PositionBias struct {
	*ParamLayer
	table        *Tensor // (numBuckets, heads)
	numBuckets   int
	maxDistance  int
	bidirectional bool
}

func newPositionBias(cfg Config, heads int, bidirectional bool) *PositionBias {
	p := &PositionBias{
		table:         NewTensor(cfg.NumPositionBuckets, heads),
		numBuckets:    cfg.NumPositionBuckets,
		maxDistance:   128,
		bidirectional: bidirectional,
	}
	name := "decoder_position_bias"
	if bidirectional {
		name = "encoder_position_bias"
	}
	p.ParamLayer = newParamLayer(name, p.table)
	return p
}

// relativePositionBucket maps a signed relative position (memory - query)
// into one of numBuckets buckets, half linear and half logarithmic, exactly
// as T5's reference implementation does.
func relativePositionBucket(relPos, numBuckets, maxDistance int, bidirectional bool) int {
	bucket := 0
	n := numBuckets
	rp := relPos
	if bidirectional {
		n /= 2
		if rp > 0 {
			bucket += n
		} else {
			rp = -rp
		}
	} else {
		if rp > 0 {
			rp = 0
		} else {
			rp = -rp
		}
	}

	maxExact := n / 2
	if rp < maxExact {
		return bucket + rp
	}

	large := maxExact + int(
		logBucket(float64(rp)/float64(maxExact), float64(maxDistance)/float64(maxExact), n-maxExact),
	)
	if large > n-1 {
		large = n - 1
	}
	return bucket + large
}

func logBucket(ratio, maxRatio float64, span int) float64 {
	if ratio <= 0 {
		return 0
	}
	return math.Log(ratio) / math.Log(maxRatio) * float64(span)
}

// Forward returns the (1, heads, qlen, klen) bias tensor for a stack of the
// given length; for the decoder self-attention step it is called once per
// row (qlen=1) with the absolute query position passed as qOffset.
func (p *PositionBias) Forward(qlen, klen, qOffset int) *Tensor {
	heads := p.table.Shape[1]
	out := NewTensor(1, heads, qlen, klen)
	for i := 0; i < qlen; i++ {
		qpos := i + qOffset
		for j := 0; j < klen; j++ {
			rel := j - qpos
			b := relativePositionBucket(rel, p.numBuckets, p.maxDistance, p.bidirectional)
			for h := 0; h < heads; h++ {
				out.Set(p.table.At(b, h), 0, h, i, j)
			}
		}
	}
	return out
}
