package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNGCachesPerSubsystem(t *testing.T) {
	p := NewPartitionedRNG(7)
	a := p.ForSubsystem(SubsystemSampler)
	b := p.ForSubsystem(SubsystemSampler)
	assert.Same(t, a, b)
}

func TestPartitionedRNGSubsystemsAreIndependent(t *testing.T) {
	p := NewPartitionedRNG(7)
	sampler := p.ForSubsystem(SubsystemSampler)
	deser := p.ForSubsystem(SubsystemDeserializer)
	assert.NotEqual(t, sampler.Int63(), deser.Int63())
}

func TestPartitionedRNGDeterministicAcrossInstances(t *testing.T) {
	p1 := NewPartitionedRNG(99)
	p2 := NewPartitionedRNG(99)
	assert.Equal(t, p1.ForSubsystem(SubsystemSampler).Int63(), p2.ForSubsystem(SubsystemSampler).Int63())
}

func TestPartitionedRNGDifferentSeedsDiverge(t *testing.T) {
	p1 := NewPartitionedRNG(1)
	p2 := NewPartitionedRNG(2)
	assert.NotEqual(t, p1.ForSubsystem(SubsystemSampler).Int63(), p2.ForSubsystem(SubsystemSampler).Int63())
}
