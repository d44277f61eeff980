package match

import (
	"context"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"quiz-match-service/internal/domain"
)

// Matcher orchestrates the strategy cascade over a corpus snapshot. It is
// stateless apart from instrumentation counters and safe for concurrent use;
// the corpus and feedback snapshot are read-only for the duration of a call.
type Matcher struct {
	cfg        Config
	overlap    *OverlapEvaluator
	blender    *Blender
	strategies []Strategy

	strategyRuns     atomic.Int64
	strategyTimeouts atomic.Int64
	overlapVetoes    atomic.Int64
}

func NewMatcher(cfg Config) *Matcher {
	overlap := NewOverlapEvaluator(cfg.Overlap)
	return &Matcher{
		cfg:        cfg,
		overlap:    overlap,
		blender:    NewBlender(cfg.Blend, overlap),
		strategies: defaultStrategies(cfg),
	}
}

// StrategyRuns reports how many strategy passes have executed. Tests use it
// to observe cascade short-circuiting and cache hits.
func (m *Matcher) StrategyRuns() int64 {
	return m.strategyRuns.Load()
}

// StrategyTimeouts reports how many strategy passes were abandoned.
func (m *Matcher) StrategyTimeouts() int64 {
	return m.strategyTimeouts.Load()
}

// OverlapVetoes reports how many text-similar candidates were discarded for
// inconsistent answer data, as opposed to plain low similarity.
func (m *Matcher) OverlapVetoes() int64 {
	return m.overlapVetoes.Load()
}

// FindBestMatch tries each strategy in priority order against the whole
// corpus and returns the first candidate that clears both its strategy
// threshold and the global confidence floor. Candidates whose answer
// options contradict the entry's are vetoed regardless of text similarity.
// When no strategy accepts and fallback is enabled, the globally best
// surviving candidate is returned tagged as low-trust. Malformed input and
// "nothing found" both yield nil, never an error.
func (m *Matcher) FindBestMatch(ctx context.Context, observed domain.ObservedQuestion, corpus []domain.CorpusEntry, lookup FeedbackLookup) *domain.MatchResult {
	normalized := Normalize(observed.QuestionText)
	if normalized == "" || len(corpus) == 0 {
		return nil
	}

	obs := observedView{
		options:    observed.AnswerOptions,
		normalized: normalized,
	}
	entries := make([]entryView, len(corpus))
	for i := range corpus {
		entries[i] = entryView{
			entry:      &corpus[i],
			normalized: Normalize(corpus[i].QuestionText),
			order:      i,
		}
	}

	limit := len(m.strategies)
	if m.cfg.MaxStrategies > 0 && m.cfg.MaxStrategies < limit {
		limit = m.cfg.MaxStrategies
	}

	var fallbackBest *domain.MatchCandidate
	for _, strategy := range m.strategies[:limit] {
		candidates := m.runStrategy(ctx, strategy, obs, entries, lookup)
		if len(candidates) == 0 {
			continue
		}

		best := candidates[0]
		if fallbackBest == nil || best.Confidence > fallbackBest.Confidence {
			fallbackBest = &best
		}
		if best.Confidence >= strategy.Threshold && best.Confidence >= m.cfg.MinConfidence {
			return &domain.MatchResult{
				Entry:      best.Entry,
				Confidence: best.Confidence,
				Strategy:   best.Strategy,
				IsFallback: false,
				Breakdown:  best.Breakdown,
			}
		}
	}

	if m.cfg.FallbackEnabled && fallbackBest != nil && fallbackBest.Confidence > 0 {
		return &domain.MatchResult{
			Entry:      fallbackBest.Entry,
			Confidence: fallbackBest.Confidence,
			Strategy:   fallbackBest.Strategy,
			IsFallback: true,
			Breakdown:  fallbackBest.Breakdown,
		}
	}
	return nil
}

// runStrategy executes one strategy pass against a timer. A pass that
// panics or overruns its budget produces no candidates; the cascade moves
// on. The abandoned goroutine finishes into a buffered channel, it is not
// preempted.
func (m *Matcher) runStrategy(ctx context.Context, strategy Strategy, obs observedView, entries []entryView, lookup FeedbackLookup) []domain.MatchCandidate {
	m.strategyRuns.Add(1)

	done := make(chan []domain.MatchCandidate, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("strategy %s panicked: %v", strategy.Name, r)
				done <- nil
			}
		}()
		done <- m.scorePass(strategy, obs, entries, lookup)
	}()

	if strategy.Timeout <= 0 {
		select {
		case candidates := <-done:
			return candidates
		case <-ctx.Done():
			return nil
		}
	}

	timer := time.NewTimer(strategy.Timeout)
	defer timer.Stop()
	select {
	case candidates := <-done:
		return candidates
	case <-timer.C:
		m.strategyTimeouts.Add(1)
		log.Printf("strategy %s exceeded %s budget, skipping", strategy.Name, strategy.Timeout)
		return nil
	case <-ctx.Done():
		return nil
	}
}

// scorePass scores every corpus entry with one strategy, vetoes candidates
// with contradictory answer data, and returns survivors sorted by
// confidence. The sort is stable with insertion order as tie-breaker so
// results are deterministic.
func (m *Matcher) scorePass(strategy Strategy, obs observedView, entries []entryView, lookup FeedbackLookup) []domain.MatchCandidate {
	type scored struct {
		candidate domain.MatchCandidate
		order     int
	}
	survivors := make([]scored, 0, 4)

	for _, entry := range entries {
		confidence, breakdown := strategy.score(m, obs, entry, lookup)
		if confidence <= 0 {
			continue
		}
		_, decision := m.overlap.Decide(obs.options, entry.entry.AnswerOptions)
		if !decision.Accepted {
			m.overlapVetoes.Add(1)
			continue
		}
		survivors = append(survivors, scored{
			candidate: domain.MatchCandidate{
				Entry:      entry.entry,
				Confidence: confidence,
				Strategy:   strategy.Name,
				Breakdown:  breakdown,
			},
			order: entry.order,
		})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].candidate.Confidence != survivors[j].candidate.Confidence {
			return survivors[i].candidate.Confidence > survivors[j].candidate.Confidence
		}
		return survivors[i].order < survivors[j].order
	})

	out := make([]domain.MatchCandidate, len(survivors))
	for i, s := range survivors {
		out[i] = s.candidate
	}
	return out
}
