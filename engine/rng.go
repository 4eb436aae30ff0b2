package engine

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for PartitionedRNG.
const (
	SubsystemSampler      = "sampler"
	SubsystemDeserializer = "deserializer"
)

// PartitionedRNG derives deterministic, isolated RNG instances per
// subsystem from one master seed, so a single --seed flag reproduces a
// run bit-for-bit while keeping the sampler's draw stream independent of,
// say, the synthetic deserializer's fill stream.
//
// Derivation: masterSeed XOR fnv1a64(subsystemName); not thread-safe.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{seed: seed, subsystems: make(map[string]*rand.Rand)}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same name always returns the same cached *rand.Rand.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derived := p.seed ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derived))
	p.subsystems[name] = rng
	return rng
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
