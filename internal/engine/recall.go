package engine

import (
	"sync"

	"github.com/naufalh/wabot/internal/domain"
)

// DefaultRecallCapacity bounds the recall cache. Deletion recovery only
// needs recent history, so old entries are evicted first-in first-out.
const DefaultRecallCapacity = 4096

// RecallCache remembers the last-seen content of every observed message so
// it can be resurfaced when a deletion notice arrives. Entries are not
// purged after a successful recall (a message can be referenced more than
// once); instead the oldest insertion is evicted once the capacity is hit.
// Safe for concurrent use.
type RecallCache struct {
	capacity int

	mu      sync.Mutex
	entries map[string]domain.Event
	order   []string // insertion order, oldest first
}

// NewRecallCache builds a cache holding at most capacity entries.
// Non-positive capacities fall back to DefaultRecallCapacity.
func NewRecallCache(capacity int) *RecallCache {
	if capacity <= 0 {
		capacity = DefaultRecallCapacity
	}
	return &RecallCache{
		capacity: capacity,
		entries:  make(map[string]domain.Event, capacity),
	}
}

func recallKey(chatID, messageID string) string { return chatID + "\x00" + messageID }

// Remember stores the payload for (chatID, messageID), evicting the oldest
// entry when full. Re-remembering an existing key refreshes the payload but
// keeps its original position in the eviction order.
func (c *RecallCache) Remember(chatID, messageID string, payload domain.Event) {
	key := recallKey(chatID, messageID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = payload
}

// Recall returns the remembered payload for (chatID, messageID), if any.
func (c *RecallCache) Recall(chatID, messageID string) (domain.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.entries[recallKey(chatID, messageID)]
	return ev, ok
}

// Len reports the number of remembered messages. Used by the status endpoint.
func (c *RecallCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
