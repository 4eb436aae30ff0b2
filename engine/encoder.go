package engine

// Encode runs the encoder pipeline of spec §4.5: embedding lookup, input
// mask, relative position bias, Le encoder blocks with layer parameters
// supplied by the streaming prefetch protocol, and a final normalization.
// inputIDs is (batch, seqLen); inputLength[b] is the number of valid
// (non-padding) tokens in row b.
func (m *Model) Encode(inputIDs [][]int, inputLength []int) (*InferenceContext, error) {
	batch := len(inputIDs)
	if batch == 0 || len(inputLength) != batch {
		return nil, newErr(ErrBadConfig, "encode: input_ids and input_length must have matching non-zero batch size")
	}
	seq := len(inputIDs[0])

	attnMask := make([][]int, batch)
	for b := 0; b < batch; b++ {
		row := make([]int, seq)
		for s := 0; s < seq && s < inputLength[b]; s++ {
			row[s] = 1
		}
		attnMask[b] = row
	}
	selfMask, crossMask := InputMask(attnMask)

	hidden := m.embedding.Forward(m.backend, inputIDs)
	posBias := m.encPosBias.Forward(seq, seq, 0)

	w := m.cfg.OverlapLayers
	if !m.cfg.OverlapEnabled {
		w = len(m.encBlocks)
		if w == 0 {
			w = 1
		}
	}

	err := runPrefetchPass(
		blockLayers(m.encBlocks), w, m.ringState, m.poolA, m.poolB, m.calcStream, m.loadStream, false,
		func(i int) error {
			blk := m.encBlocks[i]
			hidden = blk.Forward(m.backend, hidden, selfMask, posBias, m.cfg.NumHeads, m.cfg.DimKV)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	hidden = m.backend.RMSNorm(hidden, m.encNormW)

	ctx := newInferenceContext(m)
	ctx.HiddenStates = hidden
	ctx.InputLength = append([]int(nil), inputLength...)
	ctx.EncoderMask = crossMask

	// Seed the sampler's penalty-accounting history with the initial
	// context token ids (spec §4.8; original_source/bminf/models/cpm2.py's
	// GenerateSampler is constructed with idx, the full encoded input,
	// before any decode step runs).
	ctx.history = make([][]int, batch)
	for b := 0; b < batch; b++ {
		n := inputLength[b]
		if n > len(inputIDs[b]) {
			n = len(inputIDs[b])
		}
		ctx.history[b] = append([]int(nil), inputIDs[b][:n]...)
	}
	return ctx, nil
}

// blockLayers extracts the embedded *ParamLayer of each EncoderBlock, in
// order, for the prefetch driver.
func blockLayers(blocks []*EncoderBlock) []*ParamLayer {
	out := make([]*ParamLayer, len(blocks))
	for i, b := range blocks {
		out[i] = b.ParamLayer
	}
	return out
}
