package engine

// Embedding is the (vocab, D) input token embedding table shared by the
// encoder and, via weight tying, the decoder's first layer.
type Embedding struct {
	*ParamLayer
	table *Tensor
}

func newEmbedding(cfg Config) *Embedding {
	e := &Embedding{table: NewTensor(cfg.VocabSize, cfg.DimModel)}
	e.ParamLayer = newParamLayer("input_embedding", e.table)
	return e
}

// Forward looks up rows for each id in ids (batch, seq) and returns
// (batch, seq, D).
func (e *Embedding) Forward(be Backend, ids [][]int) *Tensor {
	return be.Embed(e.table, ids)
}

// LMHead projects decoder hidden states (batch, D) to vocabulary logits
// (batch, vocab) (spec §4.7: "the final normalization and the LM head
// produce (batch × vocab) logits").
type LMHead struct {
	*ParamLayer
	weight *Tensor
}

func newLMHead(cfg Config) *LMHead {
	h := &LMHead{weight: NewTensor(cfg.DimModel, cfg.VocabSize)}
	h.ParamLayer = newParamLayer("lm_head", h.weight)
	return h
}

// Forward computes x @ weight; x is (batch, 1, D) and the result is
// squeezed to (batch, vocab).
func (h *LMHead) Forward(be Backend, x *Tensor) *Tensor {
	logits := be.Linear(x, h.weight) // (batch, 1, vocab)
	return logits.Reshape(logits.Shape[0], logits.Shape[2])
}
