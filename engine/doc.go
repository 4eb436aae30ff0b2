// Package engine provides the memory-overlapped inference core for a T5-family
// encoder-decoder transformer whose parameter footprint can exceed device memory.
//
// # Reading Guide
//
// Start with these files to understand the core:
//   - config.go: Config, ModelBuilder and the knobs that drive everything else
//   - alloc_reused.go / alloc_sizelimited.go: the two allocation disciplines
//   - residency.go: per-layer DISK/PINNED_HOST/DEVICE state machine
//   - overlap.go: the planner that sizes the double-buffered ring pools
//   - prefetch.go: the calc/load driver pair and the window barrier
//   - encoder.go / decoder.go: the two compute passes
//   - sampler.go: penalty + temperature + top-n/top-p sampling
//   - taskdrivers.go: FillBlank and Generate, the two request-shaped loops
//
// # Architecture
//
// engine defines the bridge types and the compute pipeline; numeric kernels
// are behind the Backend interface (backend.go) so that a real GPU math
// library can be substituted for the reference CPU backend used by tests
// and the CLI demo. Checkpoint byte parsing and tokenizer vocabulary loading
// are likewise behind small interfaces (deserializer.go, tokenizer/) since
// the wire formats are external-collaborator contracts, not this package's
// concern.
//
// # Key Interfaces
//
//   - Backend: the GEMM/attention/normalization primitives a real accelerator
//     math library would provide
//   - Deserializer: fills a layer's host-side parameter bytes from a checkpoint
//   - Sampler: turns decoder logits into a token id
package engine
