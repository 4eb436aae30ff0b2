package engine

// EncoderBlock is one self-attention + feed-forward encoder layer (spec
// §4.5 step 4), grounded on original_source's TransformerBlockEncoder.
type EncoderBlock struct {
	*ParamLayer
	selfNorm     *Tensor
	wq, wk, wv   *Tensor
	wo           *Tensor
	ffnNorm      *Tensor
	wi, woFFN    *Tensor
}

func newEncoderBlock(cfg Config) *EncoderBlock {
	d, dff, dkv, h := cfg.DimModel, cfg.DimFF, cfg.DimKV, cfg.NumHeads
	b := &EncoderBlock{
		selfNorm: NewTensor(d),
		wq:       NewTensor(d, h*dkv),
		wk:       NewTensor(d, h*dkv),
		wv:       NewTensor(d, h*dkv),
		wo:       NewTensor(h*dkv, d),
		ffnNorm:  NewTensor(d),
		wi:       NewTensor(d, dff),
		woFFN:    NewTensor(dff, d),
	}
	b.ParamLayer = newParamLayer("encoder_block", b.selfNorm, b.wq, b.wk, b.wv, b.wo, b.ffnNorm, b.wi, b.woFFN)
	return b
}

// Forward applies layer-normed self-attention with the position bias added
// to attention logits and a residual, then layer-normed feed-forward and a
// residual (spec §4.5 step 4).
func (b *EncoderBlock) Forward(be Backend, x, mask, posBias *Tensor, heads, dkv int) *Tensor {
	normed := be.RMSNorm(x, b.selfNorm)
	attn := be.SelfAttention(normed, mask, posBias, b.wq, b.wk, b.wv, b.wo, heads, dkv)
	x = be.Add(x, attn)
	normed2 := be.RMSNorm(x, b.ffnNorm)
	ff := be.FFN(normed2, b.wi, b.woFFN)
	return be.Add(x, ff)
}

// DecoderBlock is one self-attention + cross-attention + feed-forward
// decoder layer (spec §4.7), grounded on TransformerBlockDecoder.
type DecoderBlock struct {
	*ParamLayer
	selfNorm         *Tensor
	wq, wk, wv, wo   *Tensor
	crossNorm        *Tensor
	crossWq, crossWo *Tensor
	ffnNorm          *Tensor
	wi, woFFN        *Tensor
}

func newDecoderBlock(cfg Config) *DecoderBlock {
	d, dff, dkv, h := cfg.DimModel, cfg.DimFF, cfg.DimKV, cfg.NumHeads
	b := &DecoderBlock{
		selfNorm:  NewTensor(d),
		wq:        NewTensor(d, h*dkv),
		wk:        NewTensor(d, h*dkv),
		wv:        NewTensor(d, h*dkv),
		wo:        NewTensor(h*dkv, d),
		crossNorm: NewTensor(d),
		crossWq:   NewTensor(d, h*dkv),
		crossWo:   NewTensor(h*dkv, d),
		ffnNorm:   NewTensor(d),
		wi:        NewTensor(d, dff),
		woFFN:     NewTensor(dff, d),
	}
	b.ParamLayer = newParamLayer("decoder_block", b.selfNorm, b.wq, b.wk, b.wv, b.wo, b.crossNorm, b.crossWq, b.crossWo, b.ffnNorm, b.wi, b.woFFN)
	return b
}

// Forward performs self-attention against the layer's past_kv restricted
// to columns [0, stepPos], cross-attention against encK/encV masked by
// encMask, then feed-forward, with residuals and normalizations identical
// in structure to the encoder (spec §4.7).
func (b *DecoderBlock) Forward(be Backend, x, pastK, pastV *Tensor, stepPos int, posBiasRow, encK, encV, encMask *Tensor, heads, dkv int) *Tensor {
	normed := be.RMSNorm(x, b.selfNorm)
	selfAttn := be.DecoderSelfAttentionStep(normed, pastK, pastV, stepPos, posBiasRow, b.wq, b.wk, b.wv, b.wo, heads, dkv)
	x = be.Add(x, selfAttn)

	normed2 := be.RMSNorm(x, b.crossNorm)
	crossAttn := be.CrossAttentionStep(normed2, encK, encV, encMask, b.crossWq, b.crossWo, heads, dkv)
	x = be.Add(x, crossAttn)

	normed3 := be.RMSNorm(x, b.ffnNorm)
	ff := be.FFN(normed3, b.wi, b.woFFN)
	return be.Add(x, ff)
}
