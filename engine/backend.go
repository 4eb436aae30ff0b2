package engine

// Backend is the set of numeric primitives the compute pipeline needs.
// spec §1 treats "actual GEMM/attention kernels" as an assumed external
// primitive "provided by a GPU math backend" — this interface is that
// seam. Production deployments plug in a real accelerator-backed
// implementation; ReferenceBackend (backend_ref.go) is a deterministic CPU
// implementation used by tests and the CLI demo, registered the way
// teacher's sim/kv and sim/latency packages register their pluggable
// implementations via an init()-set factory.
type Backend interface {
	// Embed looks up rows of table (vocab, D) for each id in ids
	// (batch, seq) and returns (batch, seq, D).
	Embed(table *Tensor, ids [][]int) *Tensor

	// RMSNorm applies T5-style layer norm (no mean subtraction, no bias)
	// over the last axis of x, scaled by weight (D,).
	RMSNorm(x, weight *Tensor) *Tensor

	// Linear computes x @ weight with no bias; x's last axis must equal
	// weight's first axis.
	Linear(x, weight *Tensor) *Tensor

	// Add returns a + b elementwise; a and b must have identical shapes.
	Add(a, b *Tensor) *Tensor

	// Relu applies the rectifier elementwise.
	Relu(x *Tensor) *Tensor

	// SelfAttention computes encoder self-attention. x is (batch,seq,D).
	// mask is (batch,seq,seq) additive (0 or large negative); posBias is
	// (1,heads,seq,seq) additive. Returns (batch,seq,D).
	SelfAttention(x, mask, posBias, wq, wk, wv, wo *Tensor, heads, dkv int) *Tensor

	// DecoderSelfAttentionStep computes one-token-wide self-attention
	// against pastK/pastV (batch,heads,dkv,Lmax), writing the new K/V
	// column at stepPos and attending over columns [0,stepPos]. x is
	// (batch,1,D); posBiasRow is (1,heads,1,Lmax). Returns (batch,1,D).
	DecoderSelfAttentionStep(x, pastK, pastV *Tensor, stepPos int, posBiasRow, wq, wk, wv, wo *Tensor, heads, dkv int) *Tensor

	// CrossAttentionStep computes one-token-wide cross-attention against
	// precomputed encK/encV (batch,heads,dkv,seqIn), masked by encMask
	// (batch,seqIn) additive. x is (batch,1,D). Returns (batch,1,D).
	CrossAttentionStep(x, encK, encV, encMask, wq, wo *Tensor, heads, dkv int) *Tensor

	// FFN computes the position-wise feed-forward block: relu(x@wi)@wo.
	FFN(x, wi, wo *Tensor) *Tensor

	// Softmax applies softmax over the last axis of x.
	Softmax(x *Tensor) *Tensor
}

// NewBackendFunc, when non-nil, builds the default Backend a ModelBuilder
// uses when WithBackend is not called. A real GPU-backed implementation
// would set this from its own package init(), mirroring
// sim/kv/register.go's sim.NewKVStoreFromConfig factory-variable pattern.
var NewBackendFunc = func() Backend { return NewReferenceBackend() }
