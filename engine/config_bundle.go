package engine

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigBundle is the on-disk, YAML-loadable counterpart of Config plus the
// sampler defaults, for the CLI demo driver (spec §1's "user-facing CLI" is
// out of scope; this YAML bundle belongs to the demo/integration harness
// that exercises the core, not a production configuration surface).
type ConfigBundle struct {
	VocabSize          int `yaml:"vocab_size"`
	DimModel           int `yaml:"dim_model"`
	DimFF              int `yaml:"dim_ff"`
	DimKV              int `yaml:"dim_kv"`
	NumHeads           int `yaml:"num_heads"`
	NumEncoderLayers   int `yaml:"num_encoder_layers"`
	NumDecoderLayers   int `yaml:"num_decoder_layers"`
	NumPositionBuckets int `yaml:"num_position_buckets"`
	MaxDecoderLength   int `yaml:"max_decoder_length"`
	EncoderOnly        bool `yaml:"encoder_only"`

	MemoryLimit    int64 `yaml:"memory_limit"`
	DynamicMemory  int64 `yaml:"dynamic_memory"`
	OverlapEnabled bool  `yaml:"overlap_enabled"`
	OverlapLayers  int   `yaml:"overlap_layers"`

	Sampler SamplerBundle `yaml:"sampler"`

	VocabularyPath string `yaml:"vocabulary_path"`
}

// SamplerBundle is the YAML-facing form of SamplerConfig.
type SamplerBundle struct {
	MaxTokens        int     `yaml:"max_tokens"`
	TopN             int     `yaml:"top_n"`
	TopP             float64 `yaml:"top_p"`
	Temperature      float64 `yaml:"temperature"`
	FrequencyPenalty float64 `yaml:"frequency_penalty"`
	PresencePenalty  float64 `yaml:"presence_penalty"`
}

// LoadConfigBundle reads and strictly decodes a YAML model configuration
// file: unrecognized keys (typos) are rejected rather than silently
// ignored.
func LoadConfigBundle(path string) (*ConfigBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model config: %w", err)
	}
	var bundle ConfigBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing model config: %w", err)
	}
	return &bundle, nil
}

// ToConfig converts the YAML bundle into an engine Config.
func (b *ConfigBundle) ToConfig() Config {
	return Config{
		VocabSize:          b.VocabSize,
		DimModel:           b.DimModel,
		DimFF:              b.DimFF,
		DimKV:              b.DimKV,
		NumHeads:           b.NumHeads,
		NumEncoderLayers:   b.NumEncoderLayers,
		NumDecoderLayers:   b.NumDecoderLayers,
		NumPositionBuckets: b.NumPositionBuckets,
		MaxDecoderLength:   b.MaxDecoderLength,
		EncoderOnly:        b.EncoderOnly,
		MemoryLimit:        b.MemoryLimit,
		DynamicMemory:      b.DynamicMemory,
		OverlapEnabled:     b.OverlapEnabled,
		OverlapLayers:      b.OverlapLayers,
	}
}

// ToSamplerConfig converts the YAML bundle's sampler section, applying the
// same defaults CPM2's reference driver uses (temperature 0.9) when the
// field is left at its YAML zero value.
func (b *SamplerBundle) ToSamplerConfig() SamplerConfig {
	temp := b.Temperature
	if temp <= 0 {
		temp = 0.9
	}
	maxTokens := b.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 128
	}
	return SamplerConfig{
		MaxTokens:        maxTokens,
		TopN:             b.TopN,
		TopP:             b.TopP,
		Temperature:      temp,
		FrequencyPenalty: b.FrequencyPenalty,
		PresencePenalty:  b.PresencePenalty,
	}
}
