package engine

import "math/rand"

// Deserializer fills a layer's parameter tensors from a checkpoint. The
// on-disk checkpoint format is an external-collaborator contract (spec §1,
// §6: "a deterministic deserializer that fills each layer's parameter
// tensors") — this package only needs the seam.
type Deserializer interface {
	// LoadInto fills every tensor in layer.Weights() in place.
	LoadInto(layer *ParamLayer) error
}

// SyntheticDeserializer deterministically fills layers with small
// pseudo-random values drawn from a PartitionedRNG subsystem stream,
// standing in for a real binary-checkpoint reader. It is intended for
// tests and the CLI demo only, never for production checkpoint loading.
type SyntheticDeserializer struct {
	rng *rand.Rand
}

// NewSyntheticDeserializer builds a deterministic fake checkpoint loader.
// Its fill stream is derived from the master seed through a PartitionedRNG
// keyed on SubsystemDeserializer, isolating it from the sampler's draw
// stream; the same seed always produces the same sequence of fills, which
// is what lets the determinism tests in model_test.go compare two
// independently built models.
func NewSyntheticDeserializer(seed int64) *SyntheticDeserializer {
	return &SyntheticDeserializer{rng: NewPartitionedRNG(seed).ForSubsystem(SubsystemDeserializer)}
}

func (d *SyntheticDeserializer) LoadInto(layer *ParamLayer) error {
	scale := float32(1.0 / 8.0)
	for _, w := range layer.Weights() {
		for i := range w.Data {
			w.Data[i] = float32(d.rng.NormFloat64()) * scale
		}
	}
	return nil
}
