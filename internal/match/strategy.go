package match

import (
	"time"

	"quiz-match-service/internal/domain"
)

// observedView carries the per-request precomputed view of the observed
// question so strategies never re-normalize.
type observedView struct {
	options    []string
	normalized string
}

// entryView pairs a corpus entry with its normalized text and its insertion
// order, the deterministic tie-breaker for equal confidences.
type entryView struct {
	entry      *domain.CorpusEntry
	normalized string
	order      int
}

// scoreFunc scores one observed/entry pair for one strategy, returning the
// strategy confidence and the raw signals that produced it.
type scoreFunc func(m *Matcher, obs observedView, entry entryView, lookup FeedbackLookup) (float64, map[string]float64)

// Strategy is one named matching algorithm in the cascade, with its own
// acceptance threshold and timeout budget.
type Strategy struct {
	Name      string
	Threshold float64
	Timeout   time.Duration
	score     scoreFunc
}

// defaultStrategies returns the cascade in priority order. Reliability
// decides the order: the cheap exact-hash check first, broad fuzzy
// character matching last.
func defaultStrategies(cfg Config) []Strategy {
	ordered := []struct {
		name  string
		score scoreFunc
	}{
		{StrategyExact, scoreExact},
		{StrategyContent, scoreContent},
		{StrategySemantic, scoreSemantic},
		{StrategyKeyword, scoreKeyword},
		{StrategyFuzzy, scoreFuzzy},
	}

	strategies := make([]Strategy, 0, len(ordered))
	for _, s := range ordered {
		sc, ok := cfg.Strategies[s.name]
		if ok && !sc.Enabled {
			continue
		}
		if !ok {
			sc = DefaultConfig().Strategies[s.name]
		}
		strategies = append(strategies, Strategy{
			Name:      s.name,
			Threshold: sc.Threshold,
			Timeout:   sc.Timeout,
			score:     s.score,
		})
	}
	return strategies
}

// scoreExact yields confidence 1.0 iff the normalized texts are
// byte-identical, otherwise nothing.
func scoreExact(_ *Matcher, obs observedView, entry entryView, _ FeedbackLookup) (float64, map[string]float64) {
	if obs.normalized != entry.normalized {
		return 0, nil
	}
	return 1.0, map[string]float64{"exactHash": 1.0}
}

// scoreContent runs the full confidence blend: every similarity signal plus
// answer overlap plus historical feedback.
func scoreContent(m *Matcher, obs observedView, entry entryView, lookup FeedbackLookup) (float64, map[string]float64) {
	return m.blender.Blend(obs.normalized, obs.options, entry.entry, entry.normalized, lookup)
}

// scoreSemantic leans on the context-taxonomy and structural signals, with
// word overlap as a stabilizer. Useful when wording was edited but the
// question's vocabulary profile survived.
func scoreSemantic(_ *Matcher, obs observedView, entry entryView, _ FeedbackLookup) (float64, map[string]float64) {
	semantic := SemanticContextSimilarity(obs.normalized, entry.normalized)
	wordSet := WordSetSimilarity(obs.normalized, entry.normalized)
	structural := StructuralSimilarity(obs.normalized, entry.normalized)
	confidence := clamp01(0.5*semantic + 0.3*wordSet + 0.2*structural)
	return confidence, map[string]float64{
		SignalSemantic:   semantic,
		SignalWordSet:    wordSet,
		SignalStructural: structural,
	}
}

// scoreKeyword matches on extracted content words alone, tolerating heavy
// reordering and filler edits.
func scoreKeyword(_ *Matcher, obs observedView, entry entryView, _ FeedbackLookup) (float64, map[string]float64) {
	keyword := KeywordOverlap(obs.normalized, entry.normalized)
	positional := PositionalSimilarity(obs.normalized, entry.normalized)
	confidence := clamp01(0.8*keyword + 0.2*positional)
	return confidence, map[string]float64{
		SignalKeyword:    keyword,
		SignalPositional: positional,
	}
}

// scoreFuzzy is the last resort: raw character-level similarity, blending
// edit distance with Jaro-Winkler to tolerate transpositions and typos.
func scoreFuzzy(_ *Matcher, obs observedView, entry entryView, _ FeedbackLookup) (float64, map[string]float64) {
	character := CharacterSimilarity(obs.normalized, entry.normalized)
	jaroWinkler := JaroWinklerSimilarity(obs.normalized, entry.normalized)
	confidence := clamp01(0.6*character + 0.4*jaroWinkler)
	return confidence, map[string]float64{
		SignalCharacter: character,
		"jaroWinkler":   jaroWinkler,
	}
}
