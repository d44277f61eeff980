package memory

import (
	"context"
	"strings"
	"sync"

	"quiz-match-service/internal/domain"
)

// FeedbackStore is an in-memory implementation of app.FeedbackStore.
type FeedbackStore struct {
	mu      sync.RWMutex
	records map[string]domain.FeedbackRecord
}

func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{
		records: make(map[string]domain.FeedbackRecord),
	}
}

func (s *FeedbackStore) Lookup(_ context.Context, shapeKey, entryID string) (domain.FeedbackRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[feedbackKey(shapeKey, entryID)]
	return record, ok, nil
}

// LookupShape returns every record stored under one shape key, keyed by
// entry ID.
func (s *FeedbackStore) LookupShape(_ context.Context, shapeKey string) (map[string]domain.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := shapeKey + "|"
	out := make(map[string]domain.FeedbackRecord)
	for key, record := range s.records {
		if strings.HasPrefix(key, prefix) {
			out[strings.TrimPrefix(key, prefix)] = record
		}
	}
	return out, nil
}

func (s *FeedbackStore) Record(_ context.Context, shapeKey, entryID string, wasCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := feedbackKey(shapeKey, entryID)
	record := s.records[key]
	if wasCorrect {
		record.CorrectCount++
	} else {
		record.IncorrectCount++
	}
	s.records[key] = record
	return nil
}

func feedbackKey(shapeKey, entryID string) string {
	return shapeKey + "|" + entryID
}
