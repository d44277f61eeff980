package match

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"quiz-match-service/internal/domain"
)

// Key hashes normalized question text into a cache/shape key.
func Key(normalizedText string) uint64 {
	return xxhash.Sum64String(normalizedText)
}

type cacheEntry struct {
	result    *domain.MatchResult
	createdAt time.Time
}

// ResultCache is a bounded FIFO cache in front of the matcher, keyed by the
// hash of the normalized observed question text. A nil result is a valid
// cached outcome ("confirmed no match") and is served until TTL expiry like
// any other entry. The cache is the only mutable shared state in the engine
// and is mutex-serialized.
type ResultCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	clock   func() time.Time
	entries map[uint64]cacheEntry
	order   []uint64

	hits   int64
	misses int64
}

func NewResultCache(cfg CacheConfig) *ResultCache {
	return NewResultCacheWithClock(cfg, time.Now)
}

// NewResultCacheWithClock allows deterministic TTL behavior in tests.
func NewResultCacheWithClock(cfg CacheConfig, clock func() time.Time) *ResultCache {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultConfig().Cache.MaxSize
	}
	return &ResultCache{
		maxSize: maxSize,
		ttl:     cfg.TTL,
		clock:   clock,
		entries: make(map[uint64]cacheEntry),
		order:   make([]uint64, 0, maxSize),
	}
}

// Get returns the cached result for key. The second return reports whether
// a live entry existed; the result itself may be nil.
func (c *ResultCache) Get(key uint64) (*domain.MatchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.ttl > 0 && c.clock().Sub(entry.createdAt) > c.ttl {
		c.deleteLocked(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.result, true
}

// Put stores a result, evicting the oldest inserted entry when full.
func (c *ResultCache) Put(key uint64, result *domain.MatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{result: result, createdAt: c.clock()}

	for len(c.entries) > c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Delete drops one entry, e.g. after negative user feedback on its result.
func (c *ResultCache) Delete(key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

// Clear empties the cache. Tests reset state through this instead of
// recreating the owning service.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]cacheEntry)
	c.order = c.order[:0]
}

// Len reports the number of live entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats reports lifetime hit/miss counts.
func (c *ResultCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *ResultCache) deleteLocked(key uint64) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
