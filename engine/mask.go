package engine

// negInf stands in for the additive attention mask's "blocked" value; using
// a large finite magnitude rather than math.Inf keeps downstream softmax
// arithmetic well-defined even before normalization.
const negInf = float32(-1e9)

// InputMask computes the additive (batch, seq, seq) encoder self-attention
// mask from a (batch, seq) boolean-as-int attention mask, and the collapsed
// (batch, seqIn) additive mask used to gate encoder-decoder cross-attention
// (spec §4.6 step 4).
func InputMask(attnMask [][]int) (selfMask, crossMask *Tensor) {
	batch := len(attnMask)
	seq := 0
	if batch > 0 {
		seq = len(attnMask[0])
	}

	selfMask = NewTensor(batch, seq, seq)
	crossMask = NewTensor(batch, seq)
	for b := 0; b < batch; b++ {
		for j := 0; j < seq; j++ {
			v := float32(0)
			if attnMask[b][j] == 0 {
				v = negInf
			}
			crossMask.Set(v, b, j)
			for i := 0; i < seq; i++ {
				selfMask.Set(v, b, i, j)
			}
		}
	}
	return selfMask, crossMask
}
