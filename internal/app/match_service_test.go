package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"quiz-match-service/internal/domain"
	"quiz-match-service/internal/match"
)

type staticCorpusRepo struct {
	mu     sync.Mutex
	corpus []domain.CorpusEntry
	err    error
	calls  int
}

func (r *staticCorpusRepo) GetCorpus(context.Context) ([]domain.CorpusEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.corpus, nil
}

func (r *staticCorpusRepo) setCorpus(corpus []domain.CorpusEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.corpus = corpus
}

type recordedFeedback struct {
	shapeKey   string
	entryID    string
	wasCorrect bool
}

type fakeFeedbackStore struct {
	mu          sync.Mutex
	records     map[string]domain.FeedbackRecord
	recorded    []recordedFeedback
	lookupCalls int
	lookupErr   error
	recordErr   error
}

func newFakeFeedbackStore() *fakeFeedbackStore {
	return &fakeFeedbackStore{records: map[string]domain.FeedbackRecord{}}
}

func (s *fakeFeedbackStore) LookupShape(_ context.Context, shapeKey string) (map[string]domain.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupCalls++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	prefix := shapeKey + "|"
	out := make(map[string]domain.FeedbackRecord)
	for key, record := range s.records {
		if strings.HasPrefix(key, prefix) {
			out[strings.TrimPrefix(key, prefix)] = record
		}
	}
	return out, nil
}

func (s *fakeFeedbackStore) Record(_ context.Context, shapeKey, entryID string, wasCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, recordedFeedback{shapeKey, entryID, wasCorrect})
	record := s.records[shapeKey+"|"+entryID]
	if wasCorrect {
		record.CorrectCount++
	} else {
		record.IncorrectCount++
	}
	s.records[shapeKey+"|"+entryID] = record
	return nil
}

func testCorpus() []domain.CorpusEntry {
	return []domain.CorpusEntry{
		{
			ID:                   "entry-1",
			QuestionText:         "What is the mean of the sample?",
			AnswerOptions:        []string{"3", "4", "5", "6"},
			CorrectAnswerIndices: []int{1},
		},
		{
			ID:                   "entry-2",
			QuestionText:         "Which measure describes the spread of a distribution?",
			AnswerOptions:        []string{"mean", "median", "variance", "mode"},
			CorrectAnswerIndices: []int{2},
		},
	}
}

func observedMean() domain.ObservedQuestion {
	return domain.ObservedQuestion{
		QuestionText:  "What is the mean of the sample?",
		AnswerOptions: []string{"3", "4", "5", "6"},
	}
}

func TestMatchReturnsBestEntry(t *testing.T) {
	svc := NewMatchService(&staticCorpusRepo{corpus: testCorpus()}, newFakeFeedbackStore(), match.DefaultConfig())

	result, err := svc.Match(context.Background(), observedMean())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if result == nil {
		t.Fatal("expected a match")
	}
	if result.Entry.ID != "entry-1" {
		t.Fatalf("matched %q, want entry-1", result.Entry.ID)
	}
	if result.IsFallback {
		t.Fatal("exact match must not be tagged fallback")
	}
}

func TestMatchBlankQuestionIsNotAnError(t *testing.T) {
	repo := &staticCorpusRepo{corpus: testCorpus()}
	svc := NewMatchService(repo, newFakeFeedbackStore(), match.DefaultConfig())

	result, err := svc.Match(context.Background(), domain.ObservedQuestion{QuestionText: "  \t "})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if result != nil {
		t.Fatalf("expected no match, got %+v", result)
	}
	if repo.calls != 0 {
		t.Fatalf("corpus loaded %d times for blank input, want 0", repo.calls)
	}
}

func TestMatchCorpusErrorSurfaces(t *testing.T) {
	wantErr := errors.New("backing store down")
	svc := NewMatchService(&staticCorpusRepo{err: wantErr}, newFakeFeedbackStore(), match.DefaultConfig())

	_, err := svc.Match(context.Background(), observedMean())
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want wrapped %v", err, wantErr)
	}
}

func TestMatchServesSecondLookupFromCache(t *testing.T) {
	svc := NewMatchService(&staticCorpusRepo{corpus: testCorpus()}, newFakeFeedbackStore(), match.DefaultConfig())
	ctx := context.Background()

	if _, err := svc.Match(ctx, observedMean()); err != nil {
		t.Fatalf("first Match: %v", err)
	}
	runsAfterFirst := svc.Stats().StrategyRuns

	result, err := svc.Match(ctx, observedMean())
	if err != nil {
		t.Fatalf("second Match: %v", err)
	}
	if result == nil || result.Entry.ID != "entry-1" {
		t.Fatalf("cached result = %+v, want entry-1", result)
	}

	stats := svc.Stats()
	if stats.StrategyRuns != runsAfterFirst {
		t.Fatalf("second Match ran %d extra strategy passes, want 0", stats.StrategyRuns-runsAfterFirst)
	}
	if stats.CacheHits != 1 {
		t.Fatalf("cache hits = %d, want 1", stats.CacheHits)
	}
}

func TestMatchCachesConfirmedNoMatch(t *testing.T) {
	svc := NewMatchService(&staticCorpusRepo{corpus: testCorpus()}, newFakeFeedbackStore(), match.DefaultConfig())
	ctx := context.Background()

	// No answer options observed while every stored entry has them: overlap
	// rejects everything and the engine confirms "no match".
	unrelated := domain.ObservedQuestion{QuestionText: "completely unrelated prompt about geology"}
	result, err := svc.Match(ctx, unrelated)
	if err != nil {
		t.Fatalf("first Match: %v", err)
	}
	if result != nil {
		t.Fatalf("expected no match, got %+v", result)
	}
	runsAfterFirst := svc.Stats().StrategyRuns

	result, err = svc.Match(ctx, unrelated)
	if err != nil {
		t.Fatalf("second Match: %v", err)
	}
	if result != nil {
		t.Fatalf("cached no-match changed to %+v", result)
	}
	if got := svc.Stats().StrategyRuns; got != runsAfterFirst {
		t.Fatal("confirmed no-match was recomputed instead of served from cache")
	}
}

func TestMatchDropsCachedEntryGoneFromCorpus(t *testing.T) {
	repo := &staticCorpusRepo{corpus: testCorpus()}
	svc := NewMatchService(repo, newFakeFeedbackStore(), match.DefaultConfig())
	ctx := context.Background()

	if _, err := svc.Match(ctx, observedMean()); err != nil {
		t.Fatalf("first Match: %v", err)
	}

	// The matched entry disappears from the corpus (e.g. deleted upstream).
	repo.setCorpus(testCorpus()[1:])

	result, err := svc.Match(ctx, observedMean())
	if err != nil {
		t.Fatalf("second Match: %v", err)
	}
	if result != nil && result.Entry.ID == "entry-1" {
		t.Fatal("served a cached result whose entry is no longer in the corpus")
	}
}

func TestMatchSurvivesFeedbackLookupFailure(t *testing.T) {
	feedback := newFakeFeedbackStore()
	feedback.lookupErr = errors.New("redis timeout")
	svc := NewMatchService(&staticCorpusRepo{corpus: testCorpus()}, feedback, match.DefaultConfig())

	result, err := svc.Match(context.Background(), observedMean())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if result == nil || result.Entry.ID != "entry-1" {
		t.Fatalf("result = %+v, want entry-1 despite feedback outage", result)
	}
}

func TestMatchSnapshotsFeedbackOnce(t *testing.T) {
	feedback := newFakeFeedbackStore()
	corpus := make([]domain.CorpusEntry, 50)
	for i := range corpus {
		corpus[i] = domain.CorpusEntry{
			ID:                   fmt.Sprintf("entry-%d", i),
			QuestionText:         fmt.Sprintf("What is the capital of country %d?", i),
			AnswerOptions:        []string{"north", "south", "east", "west"},
			CorrectAnswerIndices: []int{0},
		}
	}
	svc := NewMatchService(&staticCorpusRepo{corpus: corpus}, feedback, match.DefaultConfig())

	// A misspelling pushes the search past the exact strategy so the blender
	// scores every corpus entry. The store must still see a single fetch.
	observed := domain.ObservedQuestion{
		QuestionText:  "What is the capitol of country 17?",
		AnswerOptions: []string{"north", "south", "east", "west"},
	}
	if _, err := svc.Match(context.Background(), observed); err != nil {
		t.Fatalf("Match: %v", err)
	}
	if feedback.lookupCalls != 1 {
		t.Fatalf("feedback store read %d times during one match call, want 1", feedback.lookupCalls)
	}
}

func TestRecordFeedbackValidation(t *testing.T) {
	svc := NewMatchService(&staticCorpusRepo{corpus: testCorpus()}, newFakeFeedbackStore(), match.DefaultConfig())
	ctx := context.Background()

	err := svc.RecordFeedback(ctx, domain.ObservedQuestion{}, "entry-1", true)
	if !errors.Is(err, domain.ErrEmptyQuestion) {
		t.Fatalf("got %v, want ErrEmptyQuestion", err)
	}
	err = svc.RecordFeedback(ctx, observedMean(), "", true)
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("got %v, want ErrEntryNotFound", err)
	}
}

func TestRecordFeedbackPersistsShapeScopedRecord(t *testing.T) {
	feedback := newFakeFeedbackStore()
	svc := NewMatchService(&staticCorpusRepo{corpus: testCorpus()}, feedback, match.DefaultConfig())

	if err := svc.RecordFeedback(context.Background(), observedMean(), "entry-1", true); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	if len(feedback.recorded) != 1 {
		t.Fatalf("recorded %d feedback entries, want 1", len(feedback.recorded))
	}
	got := feedback.recorded[0]
	wantShape := fmt.Sprintf("%016x", match.Key(match.Normalize(observedMean().QuestionText)))
	if got.shapeKey != wantShape {
		t.Fatalf("shapeKey = %q, want %q", got.shapeKey, wantShape)
	}
	if got.entryID != "entry-1" || !got.wasCorrect {
		t.Fatalf("recorded = %+v", got)
	}
}

func TestNegativeFeedbackInvalidatesCache(t *testing.T) {
	svc := NewMatchService(&staticCorpusRepo{corpus: testCorpus()}, newFakeFeedbackStore(), match.DefaultConfig())
	ctx := context.Background()

	if _, err := svc.Match(ctx, observedMean()); err != nil {
		t.Fatalf("first Match: %v", err)
	}
	runsAfterFirst := svc.Stats().StrategyRuns

	if err := svc.RecordFeedback(ctx, observedMean(), "entry-1", false); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	if _, err := svc.Match(ctx, observedMean()); err != nil {
		t.Fatalf("second Match: %v", err)
	}
	if got := svc.Stats().StrategyRuns; got == runsAfterFirst {
		t.Fatal("negative feedback did not invalidate the cached result")
	}
}

func TestPositiveFeedbackKeepsCache(t *testing.T) {
	svc := NewMatchService(&staticCorpusRepo{corpus: testCorpus()}, newFakeFeedbackStore(), match.DefaultConfig())
	ctx := context.Background()

	if _, err := svc.Match(ctx, observedMean()); err != nil {
		t.Fatalf("first Match: %v", err)
	}
	runsAfterFirst := svc.Stats().StrategyRuns

	if err := svc.RecordFeedback(ctx, observedMean(), "entry-1", true); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	if _, err := svc.Match(ctx, observedMean()); err != nil {
		t.Fatalf("second Match: %v", err)
	}
	if got := svc.Stats().StrategyRuns; got != runsAfterFirst {
		t.Fatal("positive feedback must not invalidate the cached result")
	}
}
