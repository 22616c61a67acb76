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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/poiesic/funcrec/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func sampleResults() []core.ScoredResult {
	return []core.ScoredResult{
		{Record: &core.FunctionRecord{ID: "remove_duplicates_py", Name: "remove_duplicates", Popularity: 9}, Score: 0.9},
		{Record: &core.FunctionRecord{ID: "sort_unique_desc_py", Name: "sort_unique_desc", Popularity: 7}, Score: 0.2},
	}
}

func TestNewKeyNormalizesQuery(t *testing.T) {
	a := NewKey("  deduplicate   a\tlist ", 5, core.LanguagePython)
	b := NewKey("deduplicate a list", 5, core.LanguagePython)
	assert.Equal(t, a, b)
	assert.Equal(t, a.Digest(), b.Digest())

	// Case changes name detection, so it changes the key.
	assert.NotEqual(t, NewKey("sortUnique", 5, ""), NewKey("sortunique", 5, ""))
	assert.NotEqual(t, NewKey("sortUnique", 5, "").Digest(), NewKey("sortunique", 5, "").Digest())

	assert.NotEqual(t, a, NewKey("deduplicate a list", 3, core.LanguagePython))
	assert.NotEqual(t, a, NewKey("deduplicate a list", 5, ""))
	assert.NotEqual(t, a.Digest(), NewKey("deduplicate a list", 5, core.LanguageGo).Digest())
}

func TestMemoryCacheGetPut(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache()
	require.NoError(t, err)
	defer c.Close()

	key := NewKey("deduplicate a list", 1, core.LanguagePython)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, key, sampleResults(), 0))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResults(), got)

	stats := c.Stats()
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache()
	require.NoError(t, err)
	defer c.Close()

	key := NewKey("q", 2, "")
	require.NoError(t, c.Put(ctx, key, sampleResults(), 0))

	got, _, _ := c.Get(ctx, key)
	got[0].Score = -1

	again, _, _ := c.Get(ctx, key)
	assert.Equal(t, 0.9, again[0].Score)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c, err := NewMemoryCache(WithTTL(time.Minute), WithClock(clock.Now))
	require.NoError(t, err)
	defer c.Close()

	key := NewKey("sort array descending", 5, core.LanguageJavaScript)
	require.NoError(t, c.Put(ctx, key, sampleResults(), 0))

	clock.Advance(59 * time.Second)
	_, ok, _ := c.Get(ctx, key)
	assert.True(t, ok, "entry should still be fresh")

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, key)
	assert.False(t, ok, "entry at its TTL must not be served")
	assert.Equal(t, 0, c.Stats().Entries, "expired entry is dropped on read")
}

func TestMemoryCachePerEntryTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c, err := NewMemoryCache(WithTTL(time.Hour), WithClock(clock.Now))
	require.NoError(t, err)
	defer c.Close()

	short := NewKey("short", 1, "")
	long := NewKey("long", 1, "")
	require.NoError(t, c.Put(ctx, short, sampleResults(), time.Second))
	require.NoError(t, c.Put(ctx, long, sampleResults(), 0))

	clock.Advance(2 * time.Second)
	_, ok, _ := c.Get(ctx, short)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, long)
	assert.True(t, ok)
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c, err := NewMemoryCache(WithMaxEntries(3), WithClock(clock.Now))
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Put(ctx, NewKey(fmt.Sprintf("q%d", i), 1, ""), nil, 0))
		clock.Advance(time.Millisecond)
	}

	assert.Equal(t, 3, c.Stats().Entries)
	_, ok, _ := c.Get(ctx, NewKey("q0", 1, ""))
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok, _ = c.Get(ctx, NewKey("q4", 1, ""))
	assert.True(t, ok, "newest entry should survive")
}

func TestMemoryCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put(ctx, NewKey("a", 1, ""), sampleResults(), 0))
	require.NoError(t, c.Put(ctx, NewKey("b", 1, ""), sampleResults(), 0))
	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, 0, c.Stats().Entries)
	_, ok, _ := c.Get(ctx, NewKey("a", 1, ""))
	assert.False(t, ok)
}

func TestMemoryCacheClosed(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache()
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, _, err = c.Get(ctx, NewKey("a", 1, ""))
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, c.Put(ctx, NewKey("a", 1, ""), nil, 0), ErrCacheClosed)
	assert.ErrorIs(t, c.Clear(ctx), ErrCacheClosed)
}

func TestMemoryCacheOptions(t *testing.T) {
	_, err := NewMemoryCache(WithTTL(0))
	assert.Error(t, err)
	_, err = NewMemoryCache(WithMaxEntries(-1))
	assert.Error(t, err)
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(WithMaxEntries(50))
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := NewKey(fmt.Sprintf("q%d", (n+j)%80), 5, "")
				_ = c.Put(ctx, key, sampleResults(), 0)
				_, _, _ = c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Entries, 50)
}
