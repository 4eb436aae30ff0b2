// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bminf/t5x-engine/engine"
	"github.com/bminf/t5x-engine/engine/tokenizer"
)

var (
	configPath string
	logLevel   string
	seed       int64
	maxTokens  int
)

var rootCmd = &cobra.Command{
	Use:   "t5x-engine",
	Short: "Memory-overlapped T5-family inference core demo driver",
}

var fillBlankCmd = &cobra.Command{
	Use:   "fill-blank [text]",
	Short: "Fill <span> markers in text with the synthetic reference model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, vocab, err := buildDemoModel()
		if err != nil {
			return err
		}
		defer m.Close()

		samplerCfg := engine.SamplerConfig{MaxTokens: maxTokens, Temperature: 0.9}
		blanks, err := engine.FillBlank(m, vocab, args[0], nil, samplerCfg, seed)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Position", "Text"})
		for _, b := range blanks {
			t.AppendRow(table.Row{b.Position, b.Text})
		}
		t.Render()
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [text]",
	Short: "Continue text with the synthetic reference model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, vocab, err := buildDemoModel()
		if err != nil {
			return err
		}
		defer m.Close()

		samplerCfg := engine.SamplerConfig{MaxTokens: maxTokens, Temperature: 0.9}
		text, stopped, err := engine.Generate(m, vocab, args[0], samplerCfg, nil, seed)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Stopped", "Text"})
		t.AppendRow(table.Row{stopped, text})
		t.Render()
		return nil
	},
}

// buildDemoModel loads a ConfigBundle and vocabulary file and builds a
// Model against the synthetic deserializer and reference backend; this is
// the demo/integration harness of SPEC_FULL.md §4.11, not a production
// checkpoint loading path (spec §1 excludes real checkpoint parsing).
func buildDemoModel() (*engine.Model, *tokenizer.Vocabulary, error) {
	bundle, err := engine.LoadConfigBundle(configPath)
	if err != nil {
		return nil, nil, err
	}
	vocab, err := tokenizer.LoadVocabulary(bundle.VocabularyPath)
	if err != nil {
		return nil, nil, err
	}

	cfg := bundle.ToConfig()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	builder := engine.NewModelBuilder(cfg).
		WithDeserializer(engine.NewSyntheticDeserializer(seed)).
		WithLogger(logrus.StandardLogger())

	perLayerEstimate := estimatePerLayerBytes(cfg)
	if err := builder.ResolveOverlapWindow(perLayerEstimate); err != nil {
		return nil, nil, err
	}

	m, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}
	return m, vocab, nil
}

// estimatePerLayerBytes derives the largest per-block byte size from the
// model dimensions for the auto-W heuristic, rather than the hardcoded
// 226615296-byte constant a fixed-size reference model used (see
// DESIGN.md's Open Question resolution). It counts the same tensors the
// engine's encoder and decoder blocks own, so it equals the size Build
// measures from the built blocks.
func estimatePerLayerBytes(cfg engine.Config) int64 {
	d, dff, dkv, h := int64(cfg.DimModel), int64(cfg.DimFF), int64(cfg.DimKV), int64(cfg.NumHeads)
	// encoder block: two norms, q/k/v/o projections, FFN in/out
	params := 2*d + 4*d*h*dkv + 2*d*dff
	if !cfg.EncoderOnly {
		// decoder block adds a cross-attention norm and its q/o projections
		params = 3*d + 6*d*h*dkv + 2*d*dff
	}
	return params * 2 // half precision
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "model.yaml", "Path to model configuration YAML")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "RNG seed for the synthetic deserializer and sampler")
	rootCmd.PersistentFlags().IntVar(&maxTokens, "max-tokens", 128, "Maximum tokens to sample")

	cobra.OnInitialize(func() {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	})

	rootCmd.AddCommand(fillBlankCmd, generateCmd)
}
