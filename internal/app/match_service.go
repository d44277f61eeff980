package app

import (
	"context"
	"fmt"
	"log"

	"quiz-match-service/internal/domain"
	"quiz-match-service/internal/match"
)

// CorpusRepository supplies the corpus snapshot for one match call
// (from cache/backing store). The engine treats it as read-only.
type CorpusRepository interface {
	GetCorpus(ctx context.Context) ([]domain.CorpusEntry, error)
}

// FeedbackStore persists user corrections per (observed-shape, entry) pair.
// LookupShape returns every record under one shape key in a single fetch so
// a match call can snapshot feedback up front. Record strictly increments
// exactly one of the two counters.
type FeedbackStore interface {
	LookupShape(ctx context.Context, shapeKey string) (map[string]domain.FeedbackRecord, error)
	Record(ctx context.Context, shapeKey, entryID string, wasCorrect bool) error
}

// MatchService is the use-case layer over the matching engine: it snapshots
// the corpus and feedback per call, consults the result cache, and records
// user feedback.
type MatchService struct {
	corpus   CorpusRepository
	feedback FeedbackStore
	matcher  *match.Matcher
	cache    *match.ResultCache
}

func NewMatchService(corpus CorpusRepository, feedback FeedbackStore, cfg match.Config) *MatchService {
	return &MatchService{
		corpus:   corpus,
		feedback: feedback,
		matcher:  match.NewMatcher(cfg),
		cache:    match.NewResultCache(cfg.Cache),
	}
}

// Match finds the best corpus entry for the observed question. A nil result
// with nil error means "no confident match"; blank question text is treated
// the same way rather than as an error. Only corpus-provider failures
// surface as errors.
func (s *MatchService) Match(ctx context.Context, observed domain.ObservedQuestion) (*domain.MatchResult, error) {
	normalized := match.Normalize(observed.QuestionText)
	if normalized == "" {
		return nil, nil
	}

	corpus, err := s.corpus.GetCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	key := match.Key(normalized)
	if result, ok := s.cache.Get(key); ok {
		if result == nil || corpusContains(corpus, result.Entry.ID) {
			return result, nil
		}
		// The cached entry vanished from the corpus; treat as a miss.
		s.cache.Delete(key)
	}

	// Feedback is snapshotted in one fetch before the cascade starts;
	// strategies never touch the store mid-search.
	shapeKey := fmt.Sprintf("%016x", key)
	snapshot, err := s.feedback.LookupShape(ctx, shapeKey)
	if err != nil {
		log.Printf("feedback snapshot failed for %s: %v", shapeKey, err)
		snapshot = nil
	}
	lookup := func(entryID string) (domain.FeedbackRecord, bool) {
		record, ok := snapshot[entryID]
		return record, ok
	}

	result := s.matcher.FindBestMatch(ctx, observed, corpus, lookup)
	s.cache.Put(key, result)
	return result, nil
}

// RecordFeedback stores whether a surfaced match was right. Negative
// feedback also invalidates the cached result for that question shape so
// the next lookup re-runs the cascade with the updated history.
func (s *MatchService) RecordFeedback(ctx context.Context, observed domain.ObservedQuestion, entryID string, wasCorrect bool) error {
	normalized := match.Normalize(observed.QuestionText)
	if normalized == "" {
		return domain.ErrEmptyQuestion
	}
	if entryID == "" {
		return domain.ErrEntryNotFound
	}

	key := match.Key(normalized)
	if !wasCorrect {
		s.cache.Delete(key)
	}
	shapeKey := fmt.Sprintf("%016x", key)
	if err := s.feedback.Record(ctx, shapeKey, entryID, wasCorrect); err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

// Stats exposes engine counters for health reporting and tests.
type Stats struct {
	CacheHits        int64 `json:"cacheHits"`
	CacheMisses      int64 `json:"cacheMisses"`
	StrategyRuns     int64 `json:"strategyRuns"`
	StrategyTimeouts int64 `json:"strategyTimeouts"`
	OverlapVetoes    int64 `json:"overlapVetoes"`
}

func (s *MatchService) Stats() Stats {
	hits, misses := s.cache.Stats()
	return Stats{
		CacheHits:        hits,
		CacheMisses:      misses,
		StrategyRuns:     s.matcher.StrategyRuns(),
		StrategyTimeouts: s.matcher.StrategyTimeouts(),
		OverlapVetoes:    s.matcher.OverlapVetoes(),
	}
}

// ClearCache resets the result cache; tests use it between scenarios.
func (s *MatchService) ClearCache() {
	s.cache.Clear()
}

func corpusContains(corpus []domain.CorpusEntry, entryID string) bool {
	for i := range corpus {
		if corpus[i].ID == entryID {
			return true
		}
	}
	return false
}
