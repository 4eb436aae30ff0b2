package engine

// InferenceContext is the per-request mutable state created by Encode,
// extended by InitDecoderContext, and mutated by each DecodeStep (spec §3
// "Inference context"). It borrows the owning Model's pools for
// activations and must not outlive it.
type InferenceContext struct {
	model *Model

	HiddenStates  *Tensor // (batch, seqIn, D)
	InputLength   []int
	EncoderMask   *Tensor // (batch, seqIn), collapsed additive mask
	EncoderLayersK []*Tensor
	EncoderLayersV []*Tensor

	DecoderPosBias *PositionBias

	PastK []*Tensor // per decoder layer, (batch, heads, dkv, Lmax)
	PastV []*Tensor

	StepPos int

	// history holds, per batch element, the token ids emitted or consumed
	// so far, oldest first, for the sampler's frequency/presence penalties
	// and for task-driver span bookkeeping.
	history [][]int
}

func newInferenceContext(m *Model) *InferenceContext {
	return &InferenceContext{model: m}
}

// batchSize returns the number of sequences this context was built with.
func (c *InferenceContext) batchSize() int {
	return len(c.InputLength)
}
