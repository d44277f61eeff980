package memory

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quiz-match-service/internal/domain"
)

// CorpusLoader fetches captured question entries from a backing store
// (e.g., document DB).
type CorpusLoader interface {
	LoadCorpus(ctx context.Context) ([]domain.CorpusEntry, error)
}

// CorpusRepository caches the corpus snapshot with TTL to avoid re-reading
// the backing store on every match call. Reloads are deduplicated through
// singleflight so concurrent matches after expiry trigger one load.
type CorpusRepository struct {
	loader CorpusLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	snapshot  []domain.CorpusEntry
	expiresAt time.Time
}

func NewCorpusRepository(loader CorpusLoader, ttl time.Duration) *CorpusRepository {
	return &CorpusRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CorpusRepository) GetCorpus(ctx context.Context) ([]domain.CorpusEntry, error) {
	now := r.clock()

	r.mu.RLock()
	if r.snapshot != nil && r.expiresAt.After(now) {
		snapshot := r.snapshot
		r.mu.RUnlock()
		return snapshot, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("corpus", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.snapshot != nil && r.expiresAt.After(now) {
			snapshot := r.snapshot
			r.mu.RUnlock()
			return snapshot, nil
		}
		r.mu.RUnlock()

		entries, err := r.loader.LoadCorpus(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCorpusUnavailable, err)
		}
		entries = dropUnusable(entries)

		r.mu.Lock()
		r.snapshot = entries
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.CorpusEntry), nil
}

// Invalidate drops the cached snapshot so the next call reloads.
func (r *CorpusRepository) Invalidate() {
	r.mu.Lock()
	r.snapshot = nil
	r.expiresAt = time.Time{}
	r.mu.Unlock()
}

// dropUnusable removes entries that cannot surface any correct answer; they
// must never participate in matching, not even for similarity.
func dropUnusable(entries []domain.CorpusEntry) []domain.CorpusEntry {
	out := make([]domain.CorpusEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.HasAnswerData() {
			log.Printf("dropping corpus entry %q: no correct answer data", entry.ID)
			continue
		}
		out = append(out, entry)
	}
	return out
}

func (r *CorpusRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCorpusLoader serves a fixed entry list (useful for tests/demos).
type StaticCorpusLoader struct {
	entries []domain.CorpusEntry
}

func NewStaticCorpusLoader(entries []domain.CorpusEntry) *StaticCorpusLoader {
	return &StaticCorpusLoader{entries: entries}
}

func (l *StaticCorpusLoader) LoadCorpus(_ context.Context) ([]domain.CorpusEntry, error) {
	return l.entries, nil
}
