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


// Package funcrec recommends code snippets from a function catalog for a
// free-text request.
//
// An Engine ties the pieces together: a persistent catalog store (Badger
// or SQLite), an in-memory snapshot of it, the scoring recommender and
// its result cache, plus the import and AI enrichment pipelines.
//
//	engine, err := funcrec.Open(config.Default())
//	if err != nil { ... }
//	defer engine.Close()
//	results, err := engine.Recommend(ctx, "sort a list descending", 5, core.LanguagePython)
package funcrec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/funcrec/ai"
	"github.com/poiesic/funcrec/cache"
	"github.com/poiesic/funcrec/catalog"
	"github.com/poiesic/funcrec/config"
	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/ingestion"
	"github.com/poiesic/funcrec/search"
	"github.com/poiesic/funcrec/storage"
	"github.com/poiesic/funcrec/storage/badger"
	"github.com/poiesic/funcrec/storage/sqlite"
)

// Engine is an open function catalog with its recommender.
type Engine struct {
	cfg         *config.Config
	repo        storage.CatalogRepository
	checkpoints storage.CheckpointRepository
	closeStore  func() error
	accessor    *catalog.Accessor
	cache       cache.Cache
	recommender *search.Recommender
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger *slog.Logger
	cache  cache.Cache
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithCache uses c instead of the cache described by the configuration.
// The engine takes ownership and closes it.
func WithCache(c cache.Cache) Option {
	return func(o *engineOptions) {
		o.cache = c
	}
}

// Open opens the configured catalog store, seeds it when empty and
// seeding is enabled, and builds the recommender.
func Open(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	repo, checkpoints, closeStore, err := openStore(cfg.Catalog.Backend, cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:         cfg,
		repo:        repo,
		checkpoints: checkpoints,
		closeStore:  closeStore,
		logger:      options.logger,
	}

	if cfg.Catalog.Seed {
		if err := e.seedIfEmpty(context.Background()); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.cache = options.cache
	if e.cache == nil {
		e.cache, err = openCache(cfg.Cache)
		if err != nil {
			e.Close()
			return nil, err
		}
	}

	e.accessor, err = catalog.NewAccessor(repo, catalog.WithLogger(e.logger))
	if err != nil {
		e.Close()
		return nil, err
	}

	searchOpts := []search.Option{search.WithLogger(e.logger)}
	if e.cache != nil {
		searchOpts = append(searchOpts, search.WithCache(e.cache, cfg.Cache.TTL.Std()))
	}
	e.recommender, err = search.NewRecommender(e.accessor, searchOpts...)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// openStore opens a catalog and checkpoint repository pair for backend.
func openStore(backend, path string) (storage.CatalogRepository, storage.CheckpointRepository, func() error, error) {
	switch backend {
	case "badger":
		store, err := badger.Open(path)
		if err != nil {
			return nil, nil, nil, err
		}
		return store.Catalog, store.Checkpoints, store.Close, nil
	case "memory":
		store, err := badger.Open("")
		if err != nil {
			return nil, nil, nil, err
		}
		return store.Catalog, store.Checkpoints, store.Close, nil
	case "sqlite":
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, nil, err
			}
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, db.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, backend)
	}
}

// openCache builds the configured result cache. Zero values keep the
// cache package defaults.
func openCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		var opts []cache.MemoryOption
		if cfg.TTL > 0 {
			opts = append(opts, cache.WithTTL(cfg.TTL.Std()))
		}
		if cfg.MaxEntries > 0 {
			opts = append(opts, cache.WithMaxEntries(cfg.MaxEntries))
		}
		mc, err := cache.NewMemoryCache(opts...)
		if err != nil {
			return nil, err
		}
		return mc, nil
	case "redis":
		var opts []cache.RedisOption
		if cfg.Prefix != "" {
			opts = append(opts, cache.WithRedisPrefix(cfg.Prefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, cache.WithRedisTTL(cfg.TTL.Std()))
		}
		rc, err := cache.NewRedisCache(cfg.RedisURL, opts...)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

func (e *Engine) seedIfEmpty(ctx context.Context) error {
	stats, err := e.repo.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.Total > 0 {
		return nil
	}
	records, err := catalog.Seed()
	if err != nil {
		return err
	}
	report, err := e.importRecords(ctx, records)
	if err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	e.logger.Info("seeded empty catalog", "records", report.Added)
	return nil
}

// Close releases the cache and the store.
func (e *Engine) Close() error {
	var errs []error
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Error("error closing cache", "err", err)
			errs = append(errs, err)
		}
	}
	if e.closeStore != nil {
		if err := e.closeStore(); err != nil {
			e.logger.Error("error closing catalog store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the configuration the engine was opened with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Repository exposes the underlying catalog store.
func (e *Engine) Repository() storage.CatalogRepository {
	return e.repo
}

// Recommend returns at most topK records for query, best first.
func (e *Engine) Recommend(ctx context.Context, query string, topK int, language core.Language) ([]core.ScoredResult, error) {
	return e.recommender.Recommend(ctx, query, topK, language)
}

// RecommendWithMonitor is Recommend with per-stage callbacks.
func (e *Engine) RecommendWithMonitor(ctx context.Context, query string, topK int, language core.Language, monitor search.Monitor) ([]core.ScoredResult, error) {
	return e.recommender.RecommendWithMonitor(ctx, query, topK, language, monitor)
}

// Best returns the single best record, or nil when nothing reaches minRelevance.
func (e *Engine) Best(ctx context.Context, query string, minRelevance float64, language core.Language) (*core.ScoredResult, error) {
	return e.recommender.Best(ctx, query, minRelevance, language)
}

// Search does a plain substring lookup against the store.
func (e *Engine) Search(ctx context.Context, term string, language core.Language, limit int) ([]*core.FunctionRecord, error) {
	if err := core.ValidateLanguageFilter(language); err != nil {
		return nil, err
	}
	return e.repo.SearchRecords(ctx, term, language, limit)
}

// Stats counts the records in the current snapshot.
func (e *Engine) Stats(ctx context.Context) (core.CatalogStats, error) {
	return e.accessor.Stats(ctx)
}

// ClearCache drops memoized results.
func (e *Engine) ClearCache(ctx context.Context) error {
	return e.recommender.ClearCache(ctx)
}

// CacheStats reports cache counters; ok is false when caching is off.
func (e *Engine) CacheStats() (cache.Stats, bool) {
	return e.recommender.CacheStats()
}

// Reload re-reads the store into the snapshot and clears cached results.
func (e *Engine) Reload(ctx context.Context) error {
	if err := e.accessor.Reload(ctx); err != nil {
		return err
	}
	return e.ClearCache(ctx)
}

func (e *Engine) newPipeline(progress io.Writer) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.repo,
		ingestion.WithPoolSize(e.cfg.Ingest.Workers),
		ingestion.WithLogger(e.logger),
		ingestion.WithProgress(progress),
	)
}

func (e *Engine) importRecords(ctx context.Context, records []*core.FunctionRecord) (*ingestion.Report, error) {
	p, err := e.newPipeline(nil)
	if err != nil {
		return nil, err
	}
	defer p.Release()
	return p.Import(ctx, records)
}

// ImportRecords writes records to the store and reloads the snapshot.
func (e *Engine) ImportRecords(ctx context.Context, records []*core.FunctionRecord) (*ingestion.Report, error) {
	report, err := e.importRecords(ctx, records)
	if err != nil {
		return nil, err
	}
	return report, e.reloadAfter(ctx, report.Added+report.Updated)
}

// Import loads catalog files matched by patterns and reloads the snapshot.
// Progress is written to progress when it is not nil.
func (e *Engine) Import(ctx context.Context, progress io.Writer, patterns ...string) (*ingestion.Report, error) {
	p, err := e.newPipeline(progress)
	if err != nil {
		return nil, err
	}
	defer p.Release()

	report, err := p.ImportFiles(ctx, patterns...)
	if report != nil && report.Added+report.Updated > 0 {
		if reloadErr := e.reloadAfter(ctx, report.Added+report.Updated); reloadErr != nil && err == nil {
			err = reloadErr
		}
	}
	return report, err
}

// Enrich asks tagger for keywords for sparsely tagged records. Unless
// dryRun is set, changes are written back and the snapshot reloaded.
func (e *Engine) Enrich(ctx context.Context, tagger ai.Tagger, dryRun bool, progress io.Writer) (*ingestion.EnrichReport, error) {
	enrichCfg := ingestion.DefaultEnrichConfig()
	enrichCfg.BatchSize = e.cfg.Ingest.BatchSize
	enrichCfg.MinKeywords = e.cfg.Ingest.MinKeywords
	enrichCfg.MaxKeywords = e.cfg.AI.MaxKeywords
	enrichCfg.Retry.MaxAttempts = e.cfg.Ingest.MaxAttempts
	enrichCfg.DryRun = dryRun

	enricher, err := ingestion.NewEnricher(e.repo, tagger,
		ingestion.WithCheckpoints(e.checkpoints),
		ingestion.WithEnrichConfig(enrichCfg),
		ingestion.WithConcurrency(e.cfg.Ingest.Workers),
		ingestion.WithEnrichProgress(progress),
		ingestion.WithEnrichLogger(e.logger),
	)
	if err != nil {
		return nil, err
	}
	defer enricher.Release()

	report, err := enricher.Run(ctx)
	if report != nil && report.Updated > 0 {
		if reloadErr := e.reloadAfter(ctx, report.Updated); reloadErr != nil && err == nil {
			err = reloadErr
		}
	}
	return report, err
}

// reloadAfter refreshes the snapshot when writes happened.
func (e *Engine) reloadAfter(ctx context.Context, written int) error {
	if written == 0 || e.accessor == nil {
		return nil
	}
	return e.Reload(ctx)
}
