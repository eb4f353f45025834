// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package cache

import (
	"sync"
	"time"
)

// expiringEntry is a node in the insertion-ordered list.
type expiringEntry[K comparable, V any] struct {
	key      K
	value    V
	storedAt time.Time
	prev     *expiringEntry[K, V]
	next     *expiringEntry[K, V]
}

// ExpiringCache is a thread-safe TTL cache keyed by K.
//
// Entries are kept in a doubly-linked list ordered by the time they were
// stored: head.next is the most recently stored, tail.prev the oldest.
// Reads do not reorder entries, so when the cache is full the entry with
// the oldest store timestamp is evicted, regardless of how often it is read.
//
// Complexity:
//   - Get, Set, Delete: O(1)
//   - Sweep: O(e) where e is the number of expired entries
type ExpiringCache[K comparable, V any] struct {
	mu sync.Mutex

	// capacity is the maximum number of entries; zero means unbounded
	capacity int

	// ttl is how long an entry stays fresh after it is stored
	ttl time.Duration

	now   func() time.Time
	items map[K]*expiringEntry[K, V]
	head  *expiringEntry[K, V]
	tail  *expiringEntry[K, V]

	hits      int64
	misses    int64
	evictions int64
}

// NewExpiringCache creates a cache holding at most capacity entries for ttl.
// A nil clock defaults to time.Now.
func NewExpiringCache[K comparable, V any](capacity int, ttl time.Duration, now func() time.Time) *ExpiringCache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}

	c := &ExpiringCache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		items:    make(map[K]*expiringEntry[K, V]),
		head:     &expiringEntry[K, V]{},
		tail:     &expiringEntry[K, V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get returns the value for key if it is present and still fresh.
// Stale entries are left in place for Sweep to reclaim.
func (c *ExpiringCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok || c.expired(entry, c.now()) {
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return entry.value, true
}

// Set stores value under key with the current time, replacing any existing
// entry. Storing into a full cache evicts the oldest entry first.
func (c *ExpiringCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if entry, ok := c.items[key]; ok {
		entry.value = value
		entry.storedAt = now
		c.unlink(entry)
		c.pushFront(entry)
		return
	}

	if c.capacity > 0 && len(c.items) >= c.capacity {
		c.evictOldest()
	}

	entry := &expiringEntry[K, V]{key: key, value: value, storedAt: now}
	c.items[key] = entry
	c.pushFront(entry)
}

// Delete removes key and reports whether it was present.
func (c *ExpiringCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return false
	}
	c.unlink(entry)
	delete(c.items, key)
	return true
}

// Sweep removes every expired entry and returns how many were removed.
func (c *ExpiringCache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for entry := c.tail.prev; entry != c.head; {
		if !c.expired(entry, now) {
			break
		}
		prev := entry.prev
		c.unlink(entry)
		delete(c.items, entry.key)
		removed++
		entry = prev
	}
	return removed
}

// Len returns the number of entries, including stale ones not yet swept.
func (c *ExpiringCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats is a point-in-time view of an ExpiringCache.
type Stats struct {
	Entries   int           `json:"entries"`
	Capacity  int           `json:"capacity"`
	TTL       time.Duration `json:"ttl"`
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Evictions int64         `json:"evictions"`
}

// Stats returns the entry count, limits and hit, miss and eviction counters.
// Capacity is zero when unbounded.
func (c *ExpiringCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.items),
		Capacity:  c.capacity,
		TTL:       c.ttl,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// expired reports whether entry is at or beyond its TTL. Must be called with lock held.
func (c *ExpiringCache[K, V]) expired(entry *expiringEntry[K, V], now time.Time) bool {
	return now.Sub(entry.storedAt) >= c.ttl
}

// evictOldest drops the tail entry. Must be called with lock held.
func (c *ExpiringCache[K, V]) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.unlink(oldest)
	delete(c.items, oldest.key)
	c.evictions++
}

func (c *ExpiringCache[K, V]) pushFront(entry *expiringEntry[K, V]) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *ExpiringCache[K, V]) unlink(entry *expiringEntry[K, V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	entry.prev = nil
	entry.next = nil
}
