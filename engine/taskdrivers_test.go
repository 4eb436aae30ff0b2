package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bminf/t5x-engine/engine/tokenizer"
	"github.com/stretchr/testify/require"
)

func testVocabulary(t *testing.T) *tokenizer.Vocabulary {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	var content string
	for _, tok := range []string{"<unk>", "<s>", "</s>", "▁hello", "▁world", "foo", "bar"} {
		content += tok + "\n"
	}
	for k := 0; k < tokenizer.NumSpanSentinels; k++ {
		content += fmt.Sprintf("<span_%d>", k) + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	v, err := tokenizer.LoadVocabulary(path)
	require.NoError(t, err)
	return v
}

func buildTaskDriverModel(t *testing.T) *Model {
	cfg := tinyConfig(false)
	cfg.VocabSize = 7 + tokenizer.NumSpanSentinels
	return buildTestModel(t, cfg, 0)
}

func TestFillBlankSingleSpanReturnsOneBlank(t *testing.T) {
	m := buildTaskDriverModel(t)
	vocab := testVocabulary(t)
	samplerCfg := SamplerConfig{MaxTokens: 4, Temperature: 1}

	blanks, err := FillBlank(m, vocab, "foo<span>bar", nil, samplerCfg, 1)
	require.NoError(t, err)
	require.Len(t, blanks, 1)
	require.Equal(t, 3, blanks[0].Position) // rune offset of "<span>" in "foo<span>bar"
}

func TestFillBlankNoSpansErrors(t *testing.T) {
	m := buildTaskDriverModel(t)
	vocab := testVocabulary(t)
	samplerCfg := SamplerConfig{MaxTokens: 4, Temperature: 1}

	_, err := FillBlank(m, vocab, "no markers here", nil, samplerCfg, 1)
	require.Error(t, err)
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrNoSpans, ee.Kind)
}

func TestFillBlankExplicitSpansPositionMatchesMarker(t *testing.T) {
	m := buildTaskDriverModel(t)
	vocab := testVocabulary(t)
	samplerCfg := SamplerConfig{MaxTokens: 4, Temperature: 1}

	blanks, err := FillBlank(m, vocab, "foo<span>bar", []int{3}, samplerCfg, 1)
	require.NoError(t, err)
	require.Len(t, blanks, 1)
	require.Equal(t, 3, blanks[0].Position)
}

func TestFillBlankExplicitSpansPositionMismatchIsInvalidSpan(t *testing.T) {
	m := buildTaskDriverModel(t)
	vocab := testVocabulary(t)
	samplerCfg := SamplerConfig{MaxTokens: 4, Temperature: 1}

	_, err := FillBlank(m, vocab, "foo<span>bar", []int{0}, samplerCfg, 1)
	require.Error(t, err)
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrInvalidSpan, ee.Kind)
}

func TestGenerateSmallBudgetCompletesWithoutError(t *testing.T) {
	m := buildTaskDriverModel(t)
	vocab := testVocabulary(t)
	samplerCfg := SamplerConfig{MaxTokens: 3, Temperature: 1}

	_, stopped, err := Generate(m, vocab, "foobar", samplerCfg, nil, 1)
	require.NoError(t, err)
	_ = stopped // either outcome is legal depending on sampled tokens
}

func TestSplitSpansTooManyErrors(t *testing.T) {
	text := ""
	for i := 0; i < maxSpans+1; i++ {
		text += "<span>"
	}
	_, _, err := splitSpans(text, spanMarker)
	require.Error(t, err)
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrTooManySpans, ee.Kind)
}
