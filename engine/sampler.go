package engine

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SamplerConfig enumerates the sampler's options exactly as Design Notes §9
// specifies: "top_n: int≥1, top_p: 0<float≤1, temperature: float>0,
// frequency_penalty: float, presence_penalty: float, max_tokens: int≥1".
// Zero-valued TopN/TopP mean "unset".
type SamplerConfig struct {
	MaxTokens        int
	TopN             int
	TopP             float64
	Temperature      float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Sampler implements spec §4.8: frequency/presence penalty, temperature
// scaling, softmax, top-n/top-p restriction, then a weighted draw.
// Deterministic given its seeded RNG.
type Sampler struct {
	cfg SamplerConfig
	rng *rand.Rand
}

// NewSampler builds a Sampler seeded for reproducible draws. Its RNG is
// derived from the master seed through a PartitionedRNG keyed on
// SubsystemSampler, so the draw stream stays isolated from other
// seed-derived subsystems (e.g. the synthetic deserializer) while still
// reproducing bit-for-bit given the same master seed.
func NewSampler(cfg SamplerConfig, seed int64) *Sampler {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 1.0
	}
	rng := NewPartitionedRNG(seed).ForSubsystem(SubsystemSampler)
	return &Sampler{cfg: cfg, rng: rng}
}

// Sample picks one token id from logits (vocab-length), accounting for the
// token ids already emitted/consumed in history for this sequence.
func (s *Sampler) Sample(logits []float32, history []int) int {
	counts := make(map[int]int, len(history))
	for _, id := range history {
		counts[id]++
	}

	adjusted := make([]float64, len(logits))
	for i, v := range logits {
		adjusted[i] = float64(v)
		if c, ok := counts[i]; ok {
			adjusted[i] -= s.cfg.FrequencyPenalty * float64(c)
			if c > 0 {
				adjusted[i] -= s.cfg.PresencePenalty
			}
		}
	}
	floats.Scale(1.0/s.cfg.Temperature, adjusted)

	probs := softmax64(adjusted)

	allowed := s.restrict(probs)

	return s.draw(probs, allowed)
}

func softmax64(x []float64) []float64 {
	max := floats.Max(x)
	out := make([]float64, len(x))
	var sum float64
	for i, v := range x {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	floats.Scale(1.0/sum, out)
	return out
}

// restrict returns the sorted set of vocabulary ids allowed to be drawn
// after applying TopN and/or TopP, breaking ties by higher probability
// then lower token id (spec §4.8 step 5).
func (s *Sampler) restrict(probs []float64) []int {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if probs[order[a]] != probs[order[b]] {
			return probs[order[a]] > probs[order[b]]
		}
		return order[a] < order[b]
	})

	if s.cfg.TopN > 0 && s.cfg.TopN < len(order) {
		order = order[:s.cfg.TopN]
	}
	if s.cfg.TopP > 0 && s.cfg.TopP < 1 {
		var cum float64
		cut := len(order)
		for i, id := range order {
			cum += probs[id]
			if cum >= s.cfg.TopP {
				cut = i + 1
				break
			}
		}
		order = order[:cut]
	}
	sort.Ints(order)
	return order
}

// draw renormalizes probs over allowed and performs a single weighted
// draw using the sampler's RNG.
func (s *Sampler) draw(probs []float64, allowed []int) int {
	var total float64
	for _, id := range allowed {
		total += probs[id]
	}
	if total <= 0 {
		return allowed[0]
	}
	r := s.rng.Float64() * total
	var cum float64
	for _, id := range allowed {
		cum += probs[id]
		if r <= cum {
			return id
		}
	}
	return allowed[len(allowed)-1]
}
