package redis

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-match-service/internal/domain"
)

// FeedbackStore keeps feedback counters in Redis, one hash per observed
// shape with a field pair per corpus entry:
//
//	HINCRBY feedback:{shapeKey} {entryID}:correct 1
//	HINCRBY feedback:{shapeKey} {entryID}:incorrect 1
//
// Grouping by shape makes LookupShape a single HGETALL round trip.
// Counters only ever increment, so concurrent writers need no coordination
// beyond Redis itself.
type FeedbackStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFeedbackStore(client *redis.Client, ttl time.Duration) *FeedbackStore {
	return &FeedbackStore{client: client, ttl: ttl}
}

func (s *FeedbackStore) Lookup(ctx context.Context, shapeKey, entryID string) (domain.FeedbackRecord, bool, error) {
	fields, err := s.client.HMGet(ctx, s.key(shapeKey), entryID+":correct", entryID+":incorrect").Result()
	if err != nil {
		return domain.FeedbackRecord{}, false, err
	}
	if fields[0] == nil && fields[1] == nil {
		return domain.FeedbackRecord{}, false, nil
	}
	record := domain.FeedbackRecord{
		CorrectCount:   parseCount(fields[0]),
		IncorrectCount: parseCount(fields[1]),
	}
	return record, true, nil
}

// LookupShape fetches every counter under one shape key in a single round
// trip and returns the records keyed by entry ID.
func (s *FeedbackStore) LookupShape(ctx context.Context, shapeKey string) (map[string]domain.FeedbackRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(shapeKey)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.FeedbackRecord, len(fields)/2)
	for field, raw := range fields {
		entryID, counter, ok := splitField(field)
		if !ok {
			continue
		}
		record := out[entryID]
		switch counter {
		case "correct":
			record.CorrectCount = parseCount(raw)
		case "incorrect":
			record.IncorrectCount = parseCount(raw)
		default:
			continue
		}
		out[entryID] = record
	}
	return out, nil
}

func (s *FeedbackStore) Record(ctx context.Context, shapeKey, entryID string, wasCorrect bool) error {
	key := s.key(shapeKey)
	field := entryID + ":incorrect"
	if wasCorrect {
		field = entryID + ":correct"
	}
	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *FeedbackStore) key(shapeKey string) string {
	return "feedback:" + shapeKey
}

// splitField separates "{entryID}:{counter}" on the last colon so entry IDs
// containing colons stay intact.
func splitField(field string) (entryID, counter string, ok bool) {
	idx := strings.LastIndex(field, ":")
	if idx <= 0 {
		return "", "", false
	}
	return field[:idx], field[idx+1:], true
}

func parseCount(raw any) int {
	text, ok := raw.(string)
	if !ok || text == "" {
		return 0
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
