// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"sync"
	"time"
)

// HealthCacheEntry is the last validation result of one pair.
type HealthCacheEntry struct {
	Pair      ServerPair
	Healthy   bool
	CheckedAt time.Time
}

// healthCache maps pair identity to its last validation result.
// Entries are never presumed valid past ttl.
type healthCache struct {
	mu      sync.RWMutex
	entries map[string]HealthCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newHealthCache(ttl time.Duration, now func() time.Time) *healthCache {
	return &healthCache{
		entries: make(map[string]HealthCacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the entry for pair if it exists and is still fresh.
func (c *healthCache) Get(pair ServerPair) (HealthCacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[pair.Key()]
	c.mu.RUnlock()

	if !ok || c.expired(entry) {
		return HealthCacheEntry{}, false
	}
	return entry, true
}

// Set records a validation result checked at the current clock time.
func (c *healthCache) Set(pair ServerPair, healthy bool) HealthCacheEntry {
	entry := HealthCacheEntry{Pair: pair, Healthy: healthy, CheckedAt: c.now()}
	c.mu.Lock()
	c.entries[pair.Key()] = entry
	c.mu.Unlock()
	return entry
}

// Snapshot returns a copy of all entries, fresh or not.
func (c *healthCache) Snapshot() []HealthCacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]HealthCacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// Flush removes all entries.
func (c *healthCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]HealthCacheEntry)
	c.mu.Unlock()
}

// expired treats an entry whose age reached ttl as stale.
func (c *healthCache) expired(e HealthCacheEntry) bool {
	return c.now().Sub(e.CheckedAt) >= c.ttl
}
