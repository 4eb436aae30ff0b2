package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestVocab(t *testing.T) string {
	t.Helper()
	tokens := []string{"<unk>", "<s>", "</s>", "▁hello", "▁world", "foo", "bar"}
	for k := 0; k < NumSpanSentinels; k++ {
		tokens = append(tokens, spanToken(k))
	}
	path := filepath.Join(t.TempDir(), "vocab.txt")
	var content string
	for _, tok := range tokens {
		content += tok + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadVocabularyResolvesSpecialIDs(t *testing.T) {
	v, err := LoadVocabulary(writeTestVocab(t))
	require.NoError(t, err)
	require.Equal(t, 0, v.UnkID())
	require.Equal(t, 1, v.SodID())
	require.Equal(t, 2, v.EodID())
	require.Equal(t, 7, v.GetSpan(0))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v, err := LoadVocabulary(writeTestVocab(t))
	require.NoError(t, err)

	s := "foobar"
	ids := v.Encode(s)
	got := v.Decode(ids)
	require.Equal(t, s, got)
}

func TestEncodeUnknownFallsBackToUnk(t *testing.T) {
	v, err := LoadVocabulary(writeTestVocab(t))
	require.NoError(t, err)
	ids := v.Encode("中") // not in vocabulary
	require.Equal(t, []int{v.UnkID()}, ids)
}

func TestLoadVocabularyMissingSpecialFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo\nbar\n"), 0o644))
	_, err := LoadVocabulary(path)
	require.Error(t, err)
}

func TestSpanTokenNaming(t *testing.T) {
	require.Equal(t, "<span_5>", spanToken(5))
}
