package match

import (
	"quiz-match-service/internal/domain"
)

// FeedbackLookup resolves accumulated user feedback for a corpus entry,
// scoped to the shape of the observed question by the caller. Callers serve
// it from a snapshot taken before the search starts, so scoring a whole
// corpus never reaches back to the store. Returning false means no feedback
// exists for the pair.
type FeedbackLookup func(entryID string) (domain.FeedbackRecord, bool)

// Breakdown keys reported by the blender, for diagnostics and tests.
const (
	SignalCharacter  = "character"
	SignalWordSet    = "wordSet"
	SignalPositional = "positional"
	SignalKeyword    = "keyword"
	SignalSemantic   = "semantic"
	SignalStructural = "structural"
	SignalOverlap    = "overlap"
	SignalBase       = "base"
	SignalFeedback   = "feedbackAdjustment"
)

// Blender combines the similarity signals, answer overlap and historical
// feedback into one confidence score in [0,1] with a per-signal breakdown.
type Blender struct {
	weights BlendWeights
	overlap *OverlapEvaluator
}

func NewBlender(weights BlendWeights, overlap *OverlapEvaluator) *Blender {
	return &Blender{weights: weights, overlap: overlap}
}

// Blend scores one observed question against one corpus entry. Both
// question texts must already be normalized. The base score is a weighted
// sum of the raw signals; feedback then shifts it by at most ±0.2, so
// feedback can tip a borderline match but never manufacture one.
func (b *Blender) Blend(normalizedObserved string, observedOptions []string, entry *domain.CorpusEntry, normalizedEntry string, lookup FeedbackLookup) (float64, map[string]float64) {
	breakdown := map[string]float64{
		SignalCharacter:  CharacterSimilarity(normalizedObserved, normalizedEntry),
		SignalWordSet:    WordSetSimilarity(normalizedObserved, normalizedEntry),
		SignalPositional: PositionalSimilarity(normalizedObserved, normalizedEntry),
		SignalKeyword:    KeywordOverlap(normalizedObserved, normalizedEntry),
		SignalSemantic:   SemanticContextSimilarity(normalizedObserved, normalizedEntry),
		SignalStructural: StructuralSimilarity(normalizedObserved, normalizedEntry),
	}

	// Undefined overlap contributes a neutral 0.5: it neither confirms nor
	// contradicts the text signals. The hard accept/reject policy for
	// overlap lives in the matcher, not here.
	overlapSignal := 0.5
	if res := b.overlap.Evaluate(observedOptions, entry.AnswerOptions); res.Defined {
		overlapSignal = res.Overlap
	}
	breakdown[SignalOverlap] = overlapSignal

	w := b.weights
	total := w.Character + w.WordSet + w.Positional + w.Keyword + w.Semantic + w.Structural + w.Overlap
	if total <= 0 {
		return 0, breakdown
	}
	base := (w.Character*breakdown[SignalCharacter] +
		w.WordSet*breakdown[SignalWordSet] +
		w.Positional*breakdown[SignalPositional] +
		w.Keyword*breakdown[SignalKeyword] +
		w.Semantic*breakdown[SignalSemantic] +
		w.Structural*breakdown[SignalStructural] +
		w.Overlap*overlapSignal) / total
	breakdown[SignalBase] = base

	adjustment := 0.0
	if lookup != nil {
		if record, ok := lookup(entry.ID); ok {
			adjustment = feedbackAdjustment(record)
		}
	}
	breakdown[SignalFeedback] = adjustment

	return clamp01(base + adjustment), breakdown
}

// feedbackAdjustment maps the historical success rate of a pair onto a
// bounded confidence shift: clamp(((correct/(correct+incorrect)) - 0.5) * 0.4, -0.2, +0.2).
func feedbackAdjustment(record domain.FeedbackRecord) float64 {
	totalVotes := record.CorrectCount + record.IncorrectCount
	if totalVotes == 0 {
		return 0
	}
	rate := float64(record.CorrectCount) / float64(totalVotes)
	adjustment := (rate - 0.5) * 0.4
	if adjustment > 0.2 {
		return 0.2
	}
	if adjustment < -0.2 {
		return -0.2
	}
	return adjustment
}
