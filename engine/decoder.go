package engine

// InitDecoderContext bootstraps decoder state on ctx per spec §4.6:
// projects the encoder output to per-layer K/V, precomputes the decoder
// position bias, allocates a zero-filled past_kv cache, and resets
// step_pos to zero. Fails with ENCODER_ONLY if the model has no decoder.
func (m *Model) InitDecoderContext(ctx *InferenceContext) error {
	if m.cfg.EncoderOnly {
		return newErr(ErrEncoderOnly, "model has no decoder stack")
	}
	k, v := m.encKV.Forward(m.backend, ctx.HiddenStates)
	ctx.EncoderLayersK = k
	ctx.EncoderLayersV = v
	ctx.DecoderPosBias = m.decPosBias

	batch := ctx.batchSize()
	ctx.PastK = make([]*Tensor, len(m.decBlocks))
	ctx.PastV = make([]*Tensor, len(m.decBlocks))
	for i := range m.decBlocks {
		ctx.PastK[i] = NewTensor(batch, m.cfg.NumHeads, m.cfg.DimKV, m.cfg.MaxDecoderLength)
		ctx.PastV[i] = NewTensor(batch, m.cfg.NumHeads, m.cfg.DimKV, m.cfg.MaxDecoderLength)
	}
	ctx.StepPos = 0
	return nil
}

// DecodeStep advances ctx by one token per batch element: writes new K/V
// into past_kv at column step_pos, runs every decoder block's
// self-attention / cross-attention / feed-forward, and returns
// (batch, vocab) logits (spec §4.7). Fails with DECODE_OVERFLOW if
// step_pos >= MaxDecoderLength at entry.
func (m *Model) DecodeStep(ctx *InferenceContext, tokenIDs []int) (*Tensor, error) {
	if ctx.StepPos >= m.cfg.MaxDecoderLength {
		return nil, newErr(ErrDecodeOverflow, "step_pos %d >= max decoder length %d", ctx.StepPos, m.cfg.MaxDecoderLength)
	}

	ids := make([][]int, len(tokenIDs))
	for i, id := range tokenIDs {
		ids[i] = []int{id}
	}
	hidden := m.embedding.Forward(m.backend, ids)

	posBiasRow := m.decPosBias.Forward(1, m.cfg.MaxDecoderLength, ctx.StepPos)

	w := m.cfg.OverlapLayers
	if !m.cfg.OverlapEnabled {
		w = len(m.decBlocks)
		if w == 0 {
			w = 1
		}
	}

	err := runPrefetchPass(
		decoderBlockLayers(m.decBlocks), w, m.ringState, m.poolA, m.poolB, m.calcStream, m.loadStream, true,
		func(i int) error {
			blk := m.decBlocks[i]
			hidden = blk.Forward(
				m.backend, hidden,
				ctx.PastK[i], ctx.PastV[i], ctx.StepPos,
				posBiasRow, ctx.EncoderLayersK[i], ctx.EncoderLayersV[i], ctx.EncoderMask,
				m.cfg.NumHeads, m.cfg.DimKV,
			)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	hidden = m.backend.RMSNorm(hidden, m.decNormW)
	logits := m.lmHead.Forward(m.backend, hidden)

	ctx.StepPos++
	for b, id := range tokenIDs {
		ctx.history[b] = append(ctx.history[b], id)
	}
	return logits, nil
}

func decoderBlockLayers(blocks []*DecoderBlock) []*ParamLayer {
	out := make([]*ParamLayer, len(blocks))
	for i, b := range blocks {
		out[i] = b.ParamLayer
	}
	return out
}
