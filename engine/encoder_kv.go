package engine

// EncoderKVProjection precomputes the per-decoder-layer key/value tensors
// that decoder cross-attention reads against for the lifetime of one
// generation (spec §4.6 step 1: "encoder_layers_kv of shape
// (Ld,2,batch,H,Dkv,seqIn)"). It owns one key/value weight pair per decoder
// layer, indexed the same way as the DecoderBlock stack.
type EncoderKVProjection struct {
	*ParamLayer
	wk, wv []*Tensor // one (D, H*Dkv) pair per decoder layer
	heads  int
	dkv    int
}

func newEncoderKVProjection(cfg Config) *EncoderKVProjection {
	d, h, dkv := cfg.DimModel, cfg.NumHeads, cfg.DimKV
	p := &EncoderKVProjection{heads: h, dkv: dkv}
	weights := make([]*Tensor, 0, cfg.NumDecoderLayers*2)
	for i := 0; i < cfg.NumDecoderLayers; i++ {
		wk := NewTensor(d, h*dkv)
		wv := NewTensor(d, h*dkv)
		p.wk = append(p.wk, wk)
		p.wv = append(p.wv, wv)
		weights = append(weights, wk, wv)
	}
	p.ParamLayer = newParamLayer("encoder_kv_projection", weights...)
	return p
}

// Forward projects the final encoder hidden states (batch, seqIn, D) into
// per-layer K/V tensors shaped (batch, heads, dkv, seqIn), ready for
// CrossAttentionStep to read directly by column.
func (p *EncoderKVProjection) Forward(be Backend, encOut *Tensor) (k, v []*Tensor) {
	batch, seqIn := encOut.Shape[0], encOut.Shape[1]
	k = make([]*Tensor, len(p.wk))
	v = make([]*Tensor, len(p.wv))
	for l := range p.wk {
		kFlat := be.Linear(encOut, p.wk[l]) // (batch, seqIn, heads*dkv)
		vFlat := be.Linear(encOut, p.wv[l])
		kt := NewTensor(batch, p.heads, p.dkv, seqIn)
		vt := NewTensor(batch, p.heads, p.dkv, seqIn)
		for b := 0; b < batch; b++ {
			for s := 0; s < seqIn; s++ {
				for h := 0; h < p.heads; h++ {
					for d := 0; d < p.dkv; d++ {
						kt.Set(kFlat.At(b, s, h*p.dkv+d), b, h, d, s)
						vt.Set(vFlat.At(b, s, h*p.dkv+d), b, h, d, s)
					}
				}
			}
		}
		k[l] = kt
		v[l] = vt
	}
	return k, v
}
