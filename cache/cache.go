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
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/intent"
)

// DefaultTTL matches the original service's five minute result cache.
const DefaultTTL = 5 * time.Minute

var (
	// ErrCacheClosed is returned by operations on a closed cache.
	ErrCacheClosed = errors.New("cache closed")

	// ErrRedisURLRequired is returned when no Redis URL is configured.
	ErrRedisURLRequired = errors.New("redis URL required")
)

// Key identifies one recommendation request.
type Key struct {
	Query    string
	TopK     int
	Language core.Language
}

// NewKey builds a key from raw request arguments. Queries that differ only
// in whitespace share a key. Case is kept because "sortUnique" and
// "sortunique" extract different name candidates.
func NewKey(query string, topK int, language core.Language) Key {
	return Key{
		Query:    intent.Canonical(query),
		TopK:     topK,
		Language: language,
	}
}

// String is the canonical text form of the key.
func (k Key) String() string {
	return k.Query + "\x00" + strconv.Itoa(k.TopK) + "\x00" + string(k.Language)
}

// Digest is a fixed-width hash of the key, used for Redis keys and
// request coalescing.
func (k Key) Digest() string {
	return strconv.FormatUint(xxhash.Sum64String(k.String()), 16)
}

// Stats reports cache effectiveness.
type Stats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache memoizes ranked results with a time-to-live. Entries past their
// TTL are never returned. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the cached results for key, if present and unexpired.
	Get(ctx context.Context, key Key) ([]core.ScoredResult, bool, error)

	// Put stores results under key. A ttl <= 0 uses the cache default.
	Put(ctx context.Context, key Key, results []core.ScoredResult, ttl time.Duration) error

	// Clear drops every entry.
	Clear(ctx context.Context) error

	// Stats returns a snapshot of cache counters.
	Stats() Stats

	// Close releases resources.
	Close() error
}

func cloneResults(results []core.ScoredResult) []core.ScoredResult {
	if results == nil {
		return []core.ScoredResult{}
	}
	return append(make([]core.ScoredResult, 0, len(results)), results...)
}
