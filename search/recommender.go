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
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/poiesic/funcrec/cache"
	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/intent"
)

// Catalog supplies records in stable insertion order. An empty language
// means every language.
type Catalog interface {
	ListRecords(ctx context.Context, language core.Language) ([]*core.FunctionRecord, error)
}

// Recommender answers free-text queries against a catalog.
type Recommender struct {
	catalog  Catalog
	scorer   *Scorer
	cache    cache.Cache
	cacheTTL time.Duration
	flights  singleflight.Group
	logger   *slog.Logger

	// epoch advances on every ClearCache. A computation only stores its
	// results if no clear happened while it ran.
	mu    sync.RWMutex
	epoch uint64
}

// Option configures a Recommender.
type Option func(*Recommender) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithCache memoizes results in c. A ttl <= 0 uses the cache's default.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Recommender) error {
		r.cache = c
		r.cacheTTL = ttl
		return nil
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s *Scorer) Option {
	return func(r *Recommender) error {
		if s == nil {
			return ErrScorerRequired
		}
		r.scorer = s
		return nil
	}
}

// NewRecommender creates a recommender over catalog.
func NewRecommender(catalog Catalog, opts ...Option) (*Recommender, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}

	r := &Recommender{
		catalog: catalog,
		scorer:  DefaultScorer(),
		logger:  slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Recommend returns up to topK records ranked for query. A non-empty
// language restricts results to that language. Without one, a language
// named in the query restricts results instead.
//
// Errors: core.ErrInvalidArgument for topK <= 0 or an unknown language,
// core.ErrCatalogUnavailable when the catalog cannot be read. No match is
// an empty slice, not an error.
func (r *Recommender) Recommend(ctx context.Context, query string, topK int, language core.Language) ([]core.ScoredResult, error) {
	if err := validateRequest(topK, language); err != nil {
		return nil, err
	}

	key := cache.NewKey(query, topK, language)
	if cached, ok := r.cacheGet(ctx, key); ok {
		return cached, nil
	}

	// Identical concurrent misses share one computation. It runs detached
	// from the first caller so that caller's cancellation does not fail the
	// others; each caller still stops waiting when its own ctx is done.
	ch := r.flights.DoChan(key.Digest(), func() (any, error) {
		flightCtx := context.WithoutCancel(ctx)
		epoch := r.currentEpoch()
		results, err := r.rank(flightCtx, query, topK, language, &noopMonitor{})
		if err != nil {
			return nil, err
		}
		r.cachePut(flightCtx, key, results, epoch)
		return results, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	shared := res.Val.([]core.ScoredResult)
	results := make([]core.ScoredResult, len(shared))
	copy(results, shared)
	return results, nil
}

// RecommendWithMonitor is Recommend with per-stage callbacks. It always
// computes fresh results so that every stage is observed, and it does not
// populate the cache.
func (r *Recommender) RecommendWithMonitor(ctx context.Context, query string, topK int, language core.Language, monitor Monitor) ([]core.ScoredResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := validateRequest(topK, language); err != nil {
		return nil, err
	}
	return r.rank(ctx, query, topK, language, monitor)
}

// Best returns the top result, or nil when nothing scores at least
// minRelevance.
func (r *Recommender) Best(ctx context.Context, query string, minRelevance float64, language core.Language) (*core.ScoredResult, error) {
	results, err := r.Recommend(ctx, query, 1, language)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0].Score < minRelevance {
		return nil, nil
	}
	best := results[0]
	return &best, nil
}

// ClearCache drops all memoized results. Results still being computed
// when it is called are not stored.
func (r *Recommender) ClearCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	return r.cache.Clear(ctx)
}

func (r *Recommender) currentEpoch() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epoch
}

// CacheStats reports cache counters; ok is false when caching is disabled.
func (r *Recommender) CacheStats() (stats cache.Stats, ok bool) {
	if r.cache == nil {
		return cache.Stats{}, false
	}
	return r.cache.Stats(), true
}

func (r *Recommender) rank(ctx context.Context, query string, topK int, language core.Language, monitor Monitor) ([]core.ScoredResult, error) {
	monitor.Start(query, topK, language)

	in := intent.Extract(query)
	monitor.AfterIntentExtraction(&in)

	q := NewQuery(&in)
	rules := r.scorer.activeRules(q)
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name
	}
	monitor.RulesActivated(names)

	records, err := r.catalog.ListRecords(ctx, language)
	if err != nil {
		r.logger.Error("error reading catalog", "language", language, "err", err)
		if errors.Is(err, core.ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrCatalogUnavailable, err)
	}
	records = Candidates(records, &in, language)
	monitor.AfterCatalogFetch(records)

	_, quiet := monitor.(*noopMonitor)

	results := make([]core.ScoredResult, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		res, trace := r.scorer.score(q, rules, rec, !quiet)
		monitor.Scored(res, trace)
		results = append(results, res)
	}

	sortResults(results)
	if len(results) > topK {
		results = results[:topK]
	}

	r.logger.Debug("ranked query", "query", query, "language", language, "hint", in.LanguageHint,
		"candidates", len(records), "returned", len(results))
	monitor.Finish(results)
	return results, nil
}

// Candidates narrows records to the ones a request may return. An explicit
// language is a hard filter. Without one, a language named in the query is
// applied the same way, so "reverse string in go" only considers Go.
func Candidates(records []*core.FunctionRecord, in *core.Intent, language core.Language) []*core.FunctionRecord {
	switch {
	case language != "":
		return filterLanguage(records, language)
	case in != nil && in.LanguageHint != "":
		return filterLanguage(records, in.LanguageHint)
	}
	return records
}

func (r *Recommender) cacheGet(ctx context.Context, key cache.Key) ([]core.ScoredResult, bool) {
	if r.cache == nil {
		return nil, false
	}
	results, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	return results, ok
}

func (r *Recommender) cachePut(ctx context.Context, key cache.Key, results []core.ScoredResult, epoch uint64) {
	if r.cache == nil {
		return
	}
	// Held across the check and the write so a concurrent ClearCache either
	// sees this entry or makes it skip.
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.epoch != epoch {
		r.logger.Debug("discarding results computed before cache clear", "query", key.Query)
		return
	}
	if err := r.cache.Put(ctx, key, results, r.cacheTTL); err != nil {
		r.logger.Warn("cache write failed", "err", err)
	}
}

func validateRequest(topK int, language core.Language) error {
	if err := core.ValidateTopK(topK); err != nil {
		return err
	}
	return core.ValidateLanguageFilter(language)
}

func filterLanguage(records []*core.FunctionRecord, language core.Language) []*core.FunctionRecord {
	filtered := make([]*core.FunctionRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil && rec.Language == language {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
