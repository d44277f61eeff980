package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-match-service/internal/domain"
)

func newTestBlender() *Blender {
	cfg := DefaultConfig()
	return NewBlender(cfg.Blend, NewOverlapEvaluator(cfg.Overlap))
}

func statsEntry() *domain.CorpusEntry {
	return &domain.CorpusEntry{
		ID:                   "entry-1",
		QuestionText:         "What is the mean of the sample?",
		AnswerOptions:        []string{"3", "4", "5", "6"},
		CorrectAnswerIndices: []int{1},
	}
}

func TestBlendIdenticalQuestionScoresHigh(t *testing.T) {
	b := newTestBlender()
	entry := statsEntry()
	normalized := Normalize(entry.QuestionText)

	conf, breakdown := b.Blend(normalized, entry.AnswerOptions, entry, normalized, nil)
	assert.Greater(t, conf, 0.9)
	assert.Equal(t, 1.0, breakdown[SignalCharacter])
	assert.Equal(t, 1.0, breakdown[SignalOverlap])
	assert.Equal(t, 0.0, breakdown[SignalFeedback])
}

func TestBlendBounded(t *testing.T) {
	b := newTestBlender()
	entry := statsEntry()
	normalized := Normalize(entry.QuestionText)

	lookups := map[string]FeedbackLookup{
		"none": nil,
		"all-correct": func(string) (domain.FeedbackRecord, bool) {
			return domain.FeedbackRecord{CorrectCount: 100}, true
		},
		"all-incorrect": func(string) (domain.FeedbackRecord, bool) {
			return domain.FeedbackRecord{IncorrectCount: 100}, true
		},
	}
	for name, lookup := range lookups {
		for _, observed := range []string{"", "completely unrelated text", normalized} {
			conf, _ := b.Blend(observed, nil, entry, normalized, lookup)
			assert.GreaterOrEqual(t, conf, 0.0, "%s / %q", name, observed)
			assert.LessOrEqual(t, conf, 1.0, "%s / %q", name, observed)
		}
	}
}

func TestBlendUndefinedOverlapIsNeutral(t *testing.T) {
	b := newTestBlender()
	entry := statsEntry()
	entry.AnswerOptions = nil
	normalized := Normalize(entry.QuestionText)

	_, breakdown := b.Blend(normalized, nil, entry, normalized, nil)
	assert.Equal(t, 0.5, breakdown[SignalOverlap])
}

func TestBlendFeedbackShiftsConfidence(t *testing.T) {
	b := newTestBlender()
	entry := statsEntry()
	normalized := Normalize("what is the median of the sample?")
	entryNorm := Normalize(entry.QuestionText)

	base, breakdown := b.Blend(normalized, entry.AnswerOptions, entry, entryNorm, nil)
	require.Greater(t, base, 0.2)
	assert.Equal(t, base, breakdown[SignalBase])

	positive, breakdown := b.Blend(normalized, entry.AnswerOptions, entry, entryNorm,
		func(string) (domain.FeedbackRecord, bool) {
			return domain.FeedbackRecord{CorrectCount: 9, IncorrectCount: 1}, true
		})
	// rate 0.9 -> (0.9 - 0.5) * 0.4 = +0.16
	assert.InDelta(t, 0.16, breakdown[SignalFeedback], 1e-9)
	assert.InDelta(t, clamp01(base+0.16), positive, 1e-9)

	negative, breakdown := b.Blend(normalized, entry.AnswerOptions, entry, entryNorm,
		func(string) (domain.FeedbackRecord, bool) {
			return domain.FeedbackRecord{IncorrectCount: 10}, true
		})
	// rate 0 clamps at the -0.2 bound
	assert.InDelta(t, -0.2, breakdown[SignalFeedback], 1e-9)
	assert.InDelta(t, clamp01(base-0.2), negative, 1e-9)
}

func TestFeedbackAdjustmentClamp(t *testing.T) {
	cases := []struct {
		record domain.FeedbackRecord
		want   float64
	}{
		{domain.FeedbackRecord{}, 0},
		{domain.FeedbackRecord{CorrectCount: 5, IncorrectCount: 5}, 0},
		{domain.FeedbackRecord{CorrectCount: 3, IncorrectCount: 1}, 0.1},
		{domain.FeedbackRecord{CorrectCount: 100}, 0.2},
		{domain.FeedbackRecord{IncorrectCount: 100}, -0.2},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, feedbackAdjustment(c.record), 1e-9, "%+v", c.record)
	}
}

func TestBlendBreakdownRetainsRawSignals(t *testing.T) {
	b := newTestBlender()
	entry := statsEntry()
	entryNorm := Normalize(entry.QuestionText)

	_, breakdown := b.Blend("what is the median?", entry.AnswerOptions, entry, entryNorm, nil)
	for _, key := range []string{
		SignalCharacter, SignalWordSet, SignalPositional, SignalKeyword,
		SignalSemantic, SignalStructural, SignalOverlap, SignalBase, SignalFeedback,
	} {
		_, ok := breakdown[key]
		assert.True(t, ok, "missing breakdown signal %q", key)
	}
}
