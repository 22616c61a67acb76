// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/funcrec/core"
)

// DefaultMaxEntries bounds the memory cache.
const DefaultMaxEntries = 1000

type memoryEntry struct {
	results   []core.ScoredResult
	expiresAt time.Time
	createdAt time.Time
}

// MemoryCache is an in-process TTL cache. Expired entries are removed
// when they are next read; the oldest entry is evicted when full.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	closed     bool

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ Cache = (*MemoryCache)(nil)

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache) error

// WithTTL sets the default time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(c *MemoryCache) error {
		if ttl <= 0 {
			return errors.New("ttl must be positive")
		}
		c.ttl = ttl
		return nil
	}
}

// WithMaxEntries bounds the number of cached keys.
func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryCache) error {
		if n <= 0 {
			return errors.New("max entries must be positive")
		}
		c.maxEntries = n
		return nil
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) error {
		if now == nil {
			now = time.Now
		}
		c.now = now
		return nil
	}
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache(opts ...MemoryOption) (*MemoryCache, error) {
	c := &MemoryCache{
		entries:    make(map[string]*memoryEntry),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *MemoryCache) Get(_ context.Context, key Key) ([]core.ScoredResult, bool, error) {
	k := key.String()

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, false, ErrCacheClosed
	}
	entry, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}

	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		// Another writer may have refreshed the entry meanwhile.
		if current, ok := c.entries[k]; ok && current == entry {
			delete(c.entries, k)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return cloneResults(entry.results), true, nil
}

func (c *MemoryCache) Put(_ context.Context, key Key, results []core.ScoredResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	k := key.String()
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[k] = &memoryEntry{
		results:   cloneResults(results),
		expiresAt: now.Add(ttl),
		createdAt: now,
	}
	return nil
}

// evictLocked drops expired entries, or the oldest one if none expired.
func (c *MemoryCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	removed := false
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed = true
			continue
		}
		if oldestKey == "" || e.createdAt.Before(oldest) {
			oldestKey, oldest = k, e.createdAt
		}
	}
	if !removed && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.entries = make(map[string]*memoryEntry)
	return nil
}

func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Backend: "memory",
		Entries: n,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = nil
	return nil
}
