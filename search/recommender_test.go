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

package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/poiesic/funcrec/cache"
	"github.com/poiesic/funcrec/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRecommender(t *testing.T, opts ...Option) (*Recommender, *sliceCatalog) {
	t.Helper()
	catalog := &sliceCatalog{records: testCatalog()}
	r, err := NewRecommender(catalog, opts...)
	require.NoError(t, err)
	return r, catalog
}

func TestNewRecommenderValidation(t *testing.T) {
	_, err := NewRecommender(nil)
	assert.ErrorIs(t, err, ErrCatalogRequired)

	_, err = NewRecommender(&sliceCatalog{}, WithScorer(nil))
	assert.ErrorIs(t, err, ErrScorerRequired)

	r, err := NewRecommender(&sliceCatalog{}, WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, r.logger)
}

func TestRecommendScenarios(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t)

	t.Run("deduplicate a list in python", func(t *testing.T) {
		got, err := r.Recommend(ctx, "deduplicate a list", 1, core.LanguagePython)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "remove_duplicates", got[0].Record.Name)
	})

	t.Run("exact function name", func(t *testing.T) {
		got, err := r.Recommend(ctx, "function sort_unique_desc", 5, "")
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "sort_unique_desc", got[0].Record.Name)
		assert.GreaterOrEqual(t, got[0].Score, 0.95)
		for _, other := range got[1:] {
			assert.Less(t, other.Score, got[0].Score)
		}
	})

	t.Run("javascript filter", func(t *testing.T) {
		got, err := r.Recommend(ctx, "sort array descending", 10, core.LanguageJavaScript)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "sortDescending", got[0].Record.Name)
		for _, res := range got {
			assert.Equal(t, core.LanguageJavaScript, res.Record.Language)
		}
	})
}

func TestRecommendHardLanguageFilter(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t)

	for _, lang := range core.Languages {
		// The query names Python; the explicit filter still wins.
		got, err := r.Recommend(ctx, "sort a list in python", 50, lang)
		require.NoError(t, err, lang)
		for _, res := range got {
			assert.Equal(t, lang, res.Record.Language)
		}
	}

	got, err := r.Recommend(ctx, "sort a list in python", 50, core.LanguageJavaScript)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestRecommendQueryLanguageFilters(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t)

	tests := []struct {
		query string
		lang  core.Language
		first string
	}{
		{"reverse string in go", core.LanguageGo, "reverse_string_go"},
		{"remove duplicates in javascript", core.LanguageJavaScript, "remove_duplicates_js"},
		{"sort numbers in python", core.LanguagePython, ""},
		{"function ReverseString golang", core.LanguageGo, "reverse_string_go"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := r.Recommend(ctx, tt.query, 100, "")
			require.NoError(t, err)
			require.Len(t, got, len(filterLanguage(testCatalog(), tt.lang)))
			for _, res := range got {
				assert.Equal(t, tt.lang, res.Record.Language)
			}
			if tt.first != "" {
				assert.Equal(t, tt.first, got[0].Record.ID)
			}
		})
	}

	// A language with no records yields an empty result, not an error.
	got, err := r.Recommend(ctx, "sort a list in rust", 5, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	// "go" as a verb is not a language.
	got, err = r.Recommend(ctx, "go through a list and find the max", 100, "")
	require.NoError(t, err)
	assert.Len(t, got, len(testCatalog()))
	assert.Equal(t, "find_max_py", got[0].Record.ID)
}

func TestRecommendInvalidArguments(t *testing.T) {
	ctx := context.Background()
	r, catalog := newTestRecommender(t)

	tests := []struct {
		name string
		topK int
		lang core.Language
	}{
		{"zero topK", 0, ""},
		{"negative topK", -3, ""},
		{"unknown language", 5, core.Language("cobol")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Recommend(ctx, "sort", tt.topK, tt.lang)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
			assert.NotErrorIs(t, err, core.ErrCatalogUnavailable)
		})
	}
	assert.Zero(t, catalog.calls.Load(), "invalid requests must not touch the catalog")
}

func TestRecommendCatalogUnavailable(t *testing.T) {
	ctx := context.Background()
	r, err := NewRecommender(&sliceCatalog{err: errDiskGone})
	require.NoError(t, err)

	_, err = r.Recommend(ctx, "sort", 5, "")
	assert.ErrorIs(t, err, core.ErrCatalogUnavailable)
	assert.ErrorIs(t, err, errDiskGone)
	assert.NotErrorIs(t, err, core.ErrInvalidArgument)

	// Already classified errors are not wrapped twice.
	wrapped := fmt.Errorf("%w: offline", core.ErrCatalogUnavailable)
	r, err = NewRecommender(&sliceCatalog{err: wrapped})
	require.NoError(t, err)
	_, err = r.Recommend(ctx, "sort", 5, "")
	assert.Equal(t, wrapped, err)
}

func TestRecommendEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	r, err := NewRecommender(&sliceCatalog{})
	require.NoError(t, err)

	got, err := r.Recommend(ctx, "deduplicate a list", 5, "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = r.Recommend(ctx, "deduplicate a list", 5, core.LanguageRust)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommendTopKBound(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t)
	total := len(testCatalog())

	for _, k := range []int{1, 2, 5, total, total + 10} {
		got, err := r.Recommend(ctx, "sort a list", k, "")
		require.NoError(t, err)
		assert.Len(t, got, min(k, total))
	}
}

func TestRecommendIsDeterministic(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t)

	first, err := r.Recommend(ctx, "find the maximum value", 10, "")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Recommend(ctx, "find the maximum value", 10, "")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRecommendUsesCache(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache()
	require.NoError(t, err)
	defer mem.Close()

	r, catalog := newTestRecommender(t, WithCache(mem, time.Minute))

	first, err := r.Recommend(ctx, "deduplicate a list", 3, core.LanguagePython)
	require.NoError(t, err)
	second, err := r.Recommend(ctx, "  deduplicate a   list ", 3, core.LanguagePython)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), catalog.calls.Load())

	// Different topK or language is a different key.
	_, err = r.Recommend(ctx, "deduplicate a list", 2, core.LanguagePython)
	require.NoError(t, err)
	_, err = r.Recommend(ctx, "deduplicate a list", 3, "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), catalog.calls.Load())

	stats, ok := r.CacheStats()
	require.True(t, ok)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 3, stats.Entries)

	require.NoError(t, r.ClearCache(ctx))
	_, err = r.Recommend(ctx, "deduplicate a list", 3, core.LanguagePython)
	require.NoError(t, err)
	assert.Equal(t, int32(4), catalog.calls.Load())
}

func TestRecommendCachedMatchesUncached(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache()
	require.NoError(t, err)
	defer mem.Close()

	cached, _ := newTestRecommender(t, WithCache(mem, time.Minute))
	plain, _ := newTestRecommender(t)

	// Case matters to name detection, so these must not share an entry.
	queries := []string{"sortunique", "sortUnique", "SortUnique", "removeDupes", "removedupes", "ReverseString", "reversestring"}
	for _, q := range queries {
		_, err := cached.Recommend(ctx, q, 3, "")
		require.NoError(t, err)
	}
	for _, q := range queries {
		want, err := plain.Recommend(ctx, q, 3, "")
		require.NoError(t, err)
		got, err := cached.Recommend(ctx, q, 3, "")
		require.NoError(t, err)
		assert.Equal(t, want, got, q)
	}
}

func TestRecommendCacheResultsAreIsolated(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache()
	require.NoError(t, err)
	defer mem.Close()
	r, _ := newTestRecommender(t, WithCache(mem, 0))

	first, err := r.Recommend(ctx, "sort a list", 3, "")
	require.NoError(t, err)
	want := first[0].Score
	first[0].Score = -1

	again, err := r.Recommend(ctx, "sort a list", 3, "")
	require.NoError(t, err)
	assert.Equal(t, want, again[0].Score)
}

func TestRecommendErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache()
	require.NoError(t, err)
	defer mem.Close()

	catalog := &sliceCatalog{records: testCatalog(), err: errDiskGone}
	r, err := NewRecommender(catalog, WithCache(mem, 0))
	require.NoError(t, err)

	_, err = r.Recommend(ctx, "sort", 1, "")
	require.ErrorIs(t, err, core.ErrCatalogUnavailable)

	catalog.err = nil
	got, err := r.Recommend(ctx, "sort", 1, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecommendWithoutCache(t *testing.T) {
	r, catalog := newTestRecommender(t)
	ctx := context.Background()

	_, err := r.Recommend(ctx, "sort", 1, "")
	require.NoError(t, err)
	_, err = r.Recommend(ctx, "sort", 1, "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), catalog.calls.Load())

	_, ok := r.CacheStats()
	assert.False(t, ok)
	assert.NoError(t, r.ClearCache(ctx))
}

func TestRecommendConcurrent(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache()
	require.NoError(t, err)
	defer mem.Close()
	r, _ := newTestRecommender(t, WithCache(mem, 0))

	want, err := r.Recommend(ctx, "merge two dictionaries", 3, "")
	require.NoError(t, err)
	require.NoError(t, r.ClearCache(ctx))

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Recommend(ctx, "merge two dictionaries", 3, "")
			if err != nil {
				errs <- err
				return
			}
			if got[0].Record.ID != want[0].Record.ID {
				errs <- fmt.Errorf("got %s, want %s", got[0].Record.ID, want[0].Record.ID)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// gatedCatalog blocks reads until released and records the context each
// read saw once released.
type gatedCatalog struct {
	sliceCatalog
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	ctxErr  error
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{
		sliceCatalog: sliceCatalog{records: testCatalog()},
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
}

func (c *gatedCatalog) ListRecords(ctx context.Context, language core.Language) ([]*core.FunctionRecord, error) {
	c.once.Do(func() {
		close(c.entered)
		<-c.release
		c.ctxErr = ctx.Err()
	})
	return c.sliceCatalog.ListRecords(ctx, language)
}

func TestRecommendCallerCancelDoesNotFailOthers(t *testing.T) {
	catalog := newGatedCatalog()
	r, err := NewRecommender(catalog)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := r.Recommend(ctx, "deduplicate a list", 3, "")
		first <- err
	}()
	<-catalog.entered

	second := make(chan []core.ScoredResult, 1)
	go func() {
		got, err := r.Recommend(context.Background(), "deduplicate a list", 3, "")
		assert.NoError(t, err)
		second <- got
	}()

	cancel()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(catalog.release)
	select {
	case got := <-second:
		assert.Len(t, got, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not finish")
	}
	assert.NoError(t, catalog.ctxErr, "shared computation must not inherit a caller's cancellation")
}

func TestRecommendDiscardsResultsComputedBeforeClear(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache()
	require.NoError(t, err)
	defer mem.Close()

	catalog := newGatedCatalog()
	r, err := NewRecommender(catalog, WithCache(mem, time.Minute))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := r.Recommend(ctx, "deduplicate a list", 3, "")
		done <- err
	}()
	<-catalog.entered
	require.NoError(t, r.ClearCache(ctx))
	close(catalog.release)
	require.NoError(t, <-done)

	assert.Zero(t, mem.Stats().Entries, "results read before the clear must not be cached")

	_, err = r.Recommend(ctx, "deduplicate a list", 3, "")
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Stats().Entries)
}

func TestBest(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t)

	best, err := r.Best(ctx, "function find_max", 0.5, "")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "find_max", best.Record.Name)

	best, err = r.Best(ctx, "zzzz qqqq", 0.5, "")
	require.NoError(t, err)
	assert.Nil(t, best)

	_, err = r.Best(ctx, "sort", 0.5, core.Language("cobol"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

type recordingMonitor struct {
	started   bool
	intent    *core.Intent
	fetched   int
	rules     []string
	traces    map[string][]Contribution
	finished  []core.ScoredResult
	scoredAll int
}

func (m *recordingMonitor) Start(_ string, _ int, _ core.Language) { m.started = true }
func (m *recordingMonitor) AfterIntentExtraction(in *core.Intent) { m.intent = in }
func (m *recordingMonitor) AfterCatalogFetch(records []*core.FunctionRecord) {
	m.fetched = len(records)
}
func (m *recordingMonitor) RulesActivated(names []string) { m.rules = names }
func (m *recordingMonitor) Scored(result core.ScoredResult, contributions []Contribution) {
	if m.traces == nil {
		m.traces = make(map[string][]Contribution)
	}
	m.traces[result.Record.ID] = contributions
	m.scoredAll++
}
func (m *recordingMonitor) Finish(results []core.ScoredResult) { m.finished = results }

func TestRecommendWithMonitor(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache()
	require.NoError(t, err)
	defer mem.Close()
	r, catalog := newTestRecommender(t, WithCache(mem, 0))

	m := &recordingMonitor{}
	got, err := r.RecommendWithMonitor(ctx, "deduplicate a list", 2, core.LanguagePython, m)
	require.NoError(t, err)

	assert.True(t, m.started)
	require.NotNil(t, m.intent)
	assert.Equal(t, core.ActionRemove, m.intent.Action)
	assert.Equal(t, len(filterLanguage(testCatalog(), core.LanguagePython)), m.fetched)
	assert.Equal(t, m.fetched, m.scoredAll)
	assert.Contains(t, m.rules, "dedupe")
	assert.Equal(t, got, m.finished)

	trace := m.traces["remove_duplicates_py"]
	require.NotEmpty(t, trace)
	var signals []string
	for _, c := range trace {
		signals = append(signals, c.Signal)
	}
	assert.Contains(t, signals, "rule:dedupe")

	// Monitored calls bypass the cache in both directions.
	assert.Zero(t, mem.Stats().Entries)
	_, err = r.RecommendWithMonitor(ctx, "deduplicate a list", 2, core.LanguagePython, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), catalog.calls.Load())
}
