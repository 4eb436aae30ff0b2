package engine

import (
	"github.com/bminf/t5x-engine/engine/tokenizer"
)

// spanMarker is the literal substring task-driver callers use to mark a
// blank in input text, mirroring CPM2's "<span>" convention.
const spanMarker = "<span>"

const maxSpans = 16

// Blank is one filled-in span returned by FillBlank.
type Blank struct {
	Position int
	Text     string
}

// FillBlank implements spec §4.9's blank-fill driver: it tokenizes the
// input segment-wise, interleaving span sentinel ids for k = 0..S-1 at
// each "<span>" marker, encodes, bootstraps the decoder context, emits a
// start-of-decoder token, then samples until every span sentinel has been
// emitted or maxTokens is reached. spansPosition may be nil, in which case
// span markers are auto-detected left to right (original_source/bminf/models/cpm2.py's
// pre_processing default); if non-nil, each position is validated against
// the literal marker location in text and INVALID_SPAN is raised on a
// mismatch rather than silently falling back to auto-detection.
func FillBlank(m *Model, vocab *tokenizer.Vocabulary, text string, spansPosition []int, samplerCfg SamplerConfig, seed int64) ([]Blank, error) {
	positions, segments, err := resolveSpans(text, spansPosition, spanMarker)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(text))
	for k, seg := range segments {
		ids = append(ids, vocab.Encode(seg)...)
		if k < len(positions) {
			ids = append(ids, vocab.GetSpan(k))
		}
	}

	ctx, err := m.Encode([][]int{ids}, []int{len(ids)})
	if err != nil {
		return nil, err
	}
	if err := m.InitDecoderContext(ctx); err != nil {
		return nil, err
	}

	sampler := NewSampler(samplerCfg, seed)

	if _, err := m.DecodeStep(ctx, []int{vocab.SodID()}); err != nil {
		return nil, err
	}

	nextSpan := 1
	decoderInput := vocab.GetSpan(0)
	blanks := make([][]int, 1)

	maxTokens := samplerCfg.MaxTokens
	for t := 0; t < maxTokens; t++ {
		logits, err := m.DecodeStep(ctx, []int{decoderInput})
		if err != nil {
			return nil, err
		}
		decoderInput = sampler.Sample(logits.Data, ctx.history[0])
		if decoderInput == vocab.GetSpan(nextSpan) {
			nextSpan++
			if nextSpan > len(positions) {
				break
			}
			blanks = append(blanks, nil)
		} else {
			blanks[len(blanks)-1] = append(blanks[len(blanks)-1], decoderInput)
		}
	}

	out := make([]Blank, 0, len(positions))
	for i, pos := range positions {
		if i >= len(blanks) {
			break
		}
		out = append(out, Blank{Position: pos, Text: vocab.Decode(blanks[i])})
	}
	return out, nil
}

// Generate implements spec §4.9's free-generation driver: it appends a
// single sentinel to the input, treats its position as the sole blank, and
// samples until a stop token is seen or the budget is exhausted. The
// end-of-document token is always folded into the stop set.
func Generate(m *Model, vocab *tokenizer.Vocabulary, text string, samplerCfg SamplerConfig, stopTokens []int, seed int64) (string, bool, error) {
	ids := vocab.Encode(text)
	ids = append(ids, vocab.GetSpan(189))

	ctx, err := m.Encode([][]int{ids}, []int{len(ids)})
	if err != nil {
		return "", false, err
	}
	if err := m.InitDecoderContext(ctx); err != nil {
		return "", false, err
	}

	stopSet := make(map[int]bool, len(stopTokens)+1)
	for _, t := range stopTokens {
		stopSet[t] = true
	}
	stopSet[vocab.EodID()] = true

	sampler := NewSampler(samplerCfg, seed)

	if _, err := m.DecodeStep(ctx, []int{vocab.SodID()}); err != nil {
		return "", false, err
	}

	decoderInput := vocab.GetSpan(189)
	var out []int
	stopped := false

	maxTokens := samplerCfg.MaxTokens
	for t := 0; t < maxTokens; t++ {
		logits, err := m.DecodeStep(ctx, []int{decoderInput})
		if err != nil {
			return "", false, err
		}
		decoderInput = sampler.Sample(logits.Data, ctx.history[0])
		if stopSet[decoderInput] {
			stopped = true
			break
		}
		out = append(out, decoderInput)
	}

	return vocab.Decode(out), stopped, nil
}

// resolveSpans returns the span positions and the text segments between
// them. If spansPosition is nil, positions are auto-detected via
// splitSpans. Otherwise each caller-supplied position is validated against
// the literal marker location in text (original_source/bminf/models/cpm2.py's
// pre_processing: "if not input_sentence[pos:].startswith(SPAN_TOKEN):
// raise ValueError"), raising INVALID_SPAN on the first mismatch, and
// segments are sliced out between the given positions in order.
func resolveSpans(text string, spansPosition []int, marker string) (positions []int, segments []string, err error) {
	if spansPosition == nil {
		return splitSpans(text, marker)
	}

	if len(spansPosition) == 0 {
		return nil, nil, newErr(ErrNoSpans, "input contains no %q markers", marker)
	}
	if len(spansPosition) > maxSpans {
		return nil, nil, newErr(ErrTooManySpans, "caller supplied %d span positions, max is %d", len(spansPosition), maxSpans)
	}

	runes := []rune(text)
	markerRunes := []rune(marker)
	last := 0
	for _, pos := range spansPosition {
		if pos < 0 || pos+len(markerRunes) > len(runes) || string(runes[pos:pos+len(markerRunes)]) != marker {
			return nil, nil, newErr(ErrInvalidSpan, "wrong span token at position %d", pos)
		}
		segments = append(segments, string(runes[last:pos]))
		last = pos + len(markerRunes)
	}
	segments = append(segments, string(runes[last:]))
	return spansPosition, segments, nil
}

// splitSpans locates up to maxSpans occurrences of marker in text and
// returns their rune positions plus the text segments between them
// (len(segments) == len(positions)+1). Fails with NO_SPANS or
// TOO_MANY_SPANS.
func splitSpans(text, marker string) (positions []int, segments []string, err error) {
	runes := []rune(text)
	markerRunes := []rune(marker)

	last := 0
	for i := 0; i+len(markerRunes) <= len(runes); i++ {
		if string(runes[i:i+len(markerRunes)]) == marker {
			positions = append(positions, i)
			segments = append(segments, string(runes[last:i]))
			last = i + len(markerRunes)
			i = last - 1
		}
	}
	segments = append(segments, string(runes[last:]))

	if len(positions) == 0 {
		return nil, nil, newErr(ErrNoSpans, "input contains no %q markers", marker)
	}
	if len(positions) > maxSpans {
		return nil, nil, newErr(ErrTooManySpans, "input contains %d %q markers, max is %d", len(positions), marker, maxSpans)
	}
	return positions, segments, nil
}
