package engine

import (
	"context"
	"sync"
	"time"

	"github.com/naufalh/wabot/internal/domain"
)

// DefaultMetadataTTL is how long a fetched roster stays fresh.
const DefaultMetadataTTL = 60 * time.Second

type metaEntry struct {
	roster    *domain.GroupMetadata
	fetchedAt time.Time
}

// MetadataCache fronts the slow external roster lookup with a TTL cache.
// A fresh entry is returned verbatim; a stale or missing entry triggers a
// refetch whose result fully replaces the prior snapshot. Entries are never
// mutated in place, so a roster handed to a caller remains stable even if a
// concurrent refresh lands.
type MetadataCache struct {
	ttl   time.Duration
	fetch RosterFetcher

	mu      sync.Mutex
	entries map[string]metaEntry

	now func() time.Time
}

// NewMetadataCache builds a cache over fetch. A non-positive ttl falls back
// to DefaultMetadataTTL.
func NewMetadataCache(ttl time.Duration, fetch RosterFetcher) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	return &MetadataCache{
		ttl:     ttl,
		fetch:   fetch,
		entries: make(map[string]metaEntry),
		now:     time.Now,
	}
}

// Get returns the roster for chatID, refetching when the cached snapshot is
// older than the TTL. The fetch runs without holding the cache lock, so two
// concurrent misses may both fetch; last write wins with a full snapshot,
// which is harmless.
func (c *MetadataCache) Get(ctx context.Context, chatID string) (*domain.GroupMetadata, error) {
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[chatID]; ok && now.Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.roster, nil
	}
	c.mu.Unlock()

	roster, err := c.fetch(ctx, chatID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[chatID] = metaEntry{roster: roster, fetchedAt: now}
	c.mu.Unlock()
	return roster, nil
}

// Invalidate drops the cached snapshot for chatID, forcing the next Get to
// refetch. Used after roster mutations (kick/add/promote/demote).
func (c *MetadataCache) Invalidate(chatID string) {
	c.mu.Lock()
	delete(c.entries, chatID)
	c.mu.Unlock()
}

// Len reports the number of cached rosters. Used by the status endpoint.
func (c *MetadataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
