package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplerZeroTemperatureIsArgmax(t *testing.T) {
	s := NewSampler(SamplerConfig{Temperature: 1e-6}, 1)
	logits := []float32{0.1, 5.0, -2.0, 0.2}
	got := s.Sample(logits, nil)
	assert.Equal(t, 1, got)
}

func TestSamplerStatelessWithZeroPenalties(t *testing.T) {
	s1 := NewSampler(SamplerConfig{Temperature: 1e-6}, 42)
	s2 := NewSampler(SamplerConfig{Temperature: 1e-6}, 42)
	logits := []float32{1, 2, 3, 0.5}
	history := []int{2, 2, 2} // heavy repetition, but penalties are zero
	assert.Equal(t, s1.Sample(logits, history), s2.Sample(logits, nil))
}

func TestSamplerDeterministicGivenSeed(t *testing.T) {
	logits := []float32{1, 1, 1, 1, 1}
	a := NewSampler(SamplerConfig{Temperature: 1}, 7).Sample(logits, nil)
	b := NewSampler(SamplerConfig{Temperature: 1}, 7).Sample(logits, nil)
	assert.Equal(t, a, b)
}

func TestSamplerFrequencyPenaltySuppressesRepeatedToken(t *testing.T) {
	s := NewSampler(SamplerConfig{Temperature: 1e-6, FrequencyPenalty: 100}, 1)
	logits := []float32{5.0, 5.0, 0.0}
	got := s.Sample(logits, []int{0, 0, 0})
	assert.Equal(t, 1, got) // token 0 heavily penalized despite tying on raw logit
}

func TestSamplerTopNRestrictsToHighestLogit(t *testing.T) {
	s := NewSampler(SamplerConfig{Temperature: 1, TopN: 1}, 3)
	logits := []float32{0.1, 9.0, 0.2, 0.05}
	got := s.Sample(logits, nil)
	assert.Equal(t, 1, got)
}
