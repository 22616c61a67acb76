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


package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/funcrec/ai"
	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
)

// EnricherProcessor names the enricher's checkpoint.
const EnricherProcessor = "keyword-enricher"

// EnrichConfig controls an enrichment run.
type EnrichConfig struct {
	// BatchSize is the number of records tagged between checkpoints.
	BatchSize int
	// MinKeywords selects records with fewer keywords than this.
	MinKeywords int
	// MaxKeywords caps the keywords taken from one suggestion.
	MaxKeywords int
	// Retry governs calls to the tagger.
	Retry RetryPolicy
	// DryRun computes suggestions without writing records or checkpoints.
	DryRun bool
	// ReportInterval is how often progress is printed, in records.
	ReportInterval int
}

// DefaultEnrichConfig returns the defaults used by the CLI.
func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{
		BatchSize:      DefaultBatchSize,
		MinKeywords:    3,
		MaxKeywords:    8,
		Retry:          DefaultRetryPolicy(),
		ReportInterval: 10,
	}
}

// Change is one record's keyword update.
type Change struct {
	ID     string
	Before []string
	After  []string
}

// EnrichReport summarizes an enrichment run.
type EnrichReport struct {
	Examined int
	Skipped  int
	Tagged   int
	Updated  int
	Failed   int
	Resumed  bool
	Changes  []Change
}

// Enricher fills in keywords for sparsely tagged catalog records.
type Enricher struct {
	repo        storage.CatalogRepository
	checkpoints storage.CheckpointRepository
	tagger      ai.Tagger
	pool        *ants.Pool
	config      EnrichConfig
	progress    io.Writer
	logger      *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher) error

// WithCheckpoints makes runs resumable through repo.
func WithCheckpoints(repo storage.CheckpointRepository) EnricherOption {
	return func(e *Enricher) error {
		e.checkpoints = repo
		return nil
	}
}

// WithEnrichConfig replaces the default run configuration.
func WithEnrichConfig(cfg EnrichConfig) EnricherOption {
	return func(e *Enricher) error {
		if cfg.Retry.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		if cfg.BatchSize <= 0 {
			cfg.BatchSize = DefaultBatchSize
		}
		e.config = cfg
		return nil
	}
}

// WithConcurrency sets how many records are tagged at once.
func WithConcurrency(size int) EnricherOption {
	return func(e *Enricher) error {
		pool, err := ants.NewPool(max(size, 1))
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithEnrichProgress reports progress to w.
func WithEnrichProgress(w io.Writer) EnricherOption {
	return func(e *Enricher) error {
		e.progress = w
		return nil
	}
}

// WithEnrichLogger sets a custom logger.
// Default is slog.Default().
func WithEnrichLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an enricher that tags records in repo.
func NewEnricher(repo storage.CatalogRepository, tagger ai.Tagger, opts ...EnricherOption) (*Enricher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if tagger == nil {
		return nil, ErrTaggerRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
	if err != nil {
		return nil, err
	}
	e := &Enricher{
		repo:   repo,
		tagger: tagger,
		pool:   pool,
		config: DefaultEnrichConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}
	return e, nil
}

// Release frees the worker pool.
func (e *Enricher) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Run tags every record with fewer than MinKeywords keywords. With
// checkpoints configured it resumes after the last completed batch and
// clears the checkpoint when the catalog has been fully walked.
func (e *Enricher) Run(ctx context.Context) (*EnrichReport, error) {
	report := &EnrichReport{}
	persist := e.checkpoints != nil && !e.config.DryRun

	var cp *core.Checkpoint
	if persist {
		loaded, err := e.checkpoints.LoadCheckpoint(ctx, EnricherProcessor)
		if err != nil {
			return nil, err
		}
		cp = loaded
	}
	if cp == nil {
		cp = &core.Checkpoint{Processor: EnricherProcessor}
	} else {
		report.Resumed = true
		e.logger.Info("resuming enrichment", "after", cp.LastID, "processed", cp.Processed)
	}

	it := NewRecordIterator(e.repo, e.config.BatchSize).StartAfter(cp.LastID)
	total, err := it.Count(ctx)
	if err != nil {
		return nil, err
	}

	tracker := NewProgressTracker(e.progress, "Enriching", total, e.config.ReportInterval)
	tracker.Start()
	defer tracker.Finish()

	err = it.ForEach(ctx, func(batch []*core.FunctionRecord) error {
		if err := e.processBatch(ctx, batch, report); err != nil {
			return err
		}
		tracker.Increment(len(batch))

		if persist {
			cp.LastID = batch[len(batch)-1].ID
			cp.Processed += len(batch)
			if err := e.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	if persist {
		if err := e.checkpoints.DeleteCheckpoint(ctx, EnricherProcessor); err != nil {
			return report, err
		}
	}
	e.logger.Info("enrichment complete",
		"examined", report.Examined, "tagged", report.Tagged,
		"updated", report.Updated, "failed", report.Failed, "dryRun", e.config.DryRun)
	return report, nil
}

func (e *Enricher) processBatch(ctx context.Context, batch []*core.FunctionRecord, report *EnrichReport) error {
	suggestions := make([]*ai.TagSuggestion, len(batch))
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	for i, r := range batch {
		report.Examined++
		if len(r.Keywords) >= e.config.MinKeywords {
			report.Skipped++
			continue
		}
		wg.Add(1)
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			errs[i] = e.config.Retry.Do(ctx, func(ctx context.Context) error {
				s, err := e.tagger.SuggestTags(ctx, r)
				if errors.Is(err, ai.ErrMalformedResponse) {
					return Permanent(err)
				}
				if err != nil {
					return err
				}
				suggestions[i] = s
				return nil
			})
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	var updates []*core.FunctionRecord
	for i, r := range batch {
		if errs[i] != nil {
			report.Failed++
			e.logger.Warn("tagging failed", "id", r.ID, "err", errs[i])
			continue
		}
		s := suggestions[i]
		if s == nil {
			continue
		}
		report.Tagged++
		s.Sanitize(e.config.MaxKeywords)
		updated, changed := s.Apply(r)
		if !changed {
			continue
		}
		updates = append(updates, updated)
		report.Changes = append(report.Changes, Change{ID: r.ID, Before: r.Keywords, After: updated.Keywords})
	}

	if len(updates) == 0 || e.config.DryRun {
		return nil
	}
	if err := e.repo.UpdateRecords(ctx, updates...); err != nil {
		return err
	}
	report.Updated += len(updates)
	return nil
}
