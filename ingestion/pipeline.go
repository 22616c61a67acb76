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
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/funcrec/catalog"
	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
)

// Pipeline imports function records into a catalog repository.
type Pipeline struct {
	repo     storage.CatalogRepository
	pool     *ants.Pool
	progress io.Writer
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size used for validation.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		pool, err := ants.NewPool(max(size, 1))
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithProgress reports import progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// NewPipeline creates an import pipeline writing to repo.
func NewPipeline(repo storage.CatalogRepository, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repo:   repo,
		pool:   pool,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// RecordError describes a record the import rejected.
type RecordError struct {
	Source string
	Index  int
	ID     string
	Err    error
}

func (e RecordError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s[%d] %s: %v", e.Source, e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %v", e.Index, e.ID, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// Report summarizes an import.
type Report struct {
	Files     int
	Added     int
	Updated   int
	Unchanged int
	Rejected  []RecordError
}

// Total returns the number of records the import looked at.
func (r *Report) Total() int {
	return r.Added + r.Updated + r.Unchanged + len(r.Rejected)
}

func (r *Report) merge(o *Report) {
	r.Files += o.Files
	r.Added += o.Added
	r.Updated += o.Updated
	r.Unchanged += o.Unchanged
	r.Rejected = append(r.Rejected, o.Rejected...)
}

// Import validates records and writes them to the repository. New IDs are
// added, changed records replace the stored version and identical ones are
// left alone. Invalid records are reported, not fatal; all accepted writes
// happen in one transaction.
func (p *Pipeline) Import(ctx context.Context, records []*core.FunctionRecord) (*Report, error) {
	return p.importRecords(ctx, "", records)
}

func (p *Pipeline) importRecords(ctx context.Context, source string, records []*core.FunctionRecord) (*Report, error) {
	report := &Report{}
	if len(records) == 0 {
		return report, nil
	}

	tracker := NewProgressTracker(p.progress, "Validating", len(records), max(len(records)/20, 1))
	tracker.Start()

	errs := make([]error, len(records))
	prints := make([]string, len(records))
	var wg sync.WaitGroup
	for i, r := range records {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			defer tracker.Increment(1)
			if err := core.ValidateFunctionRecord(r); err != nil {
				errs[i] = err
				return
			}
			prints[i] = core.Fingerprint(r)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()
	tracker.Finish()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(records))
	var toAdd, toUpdate []*core.FunctionRecord
	for i, r := range records {
		id := ""
		if r != nil {
			id = r.ID
		}
		if errs[i] != nil {
			report.Rejected = append(report.Rejected, RecordError{Source: source, Index: i, ID: id, Err: errs[i]})
			continue
		}
		if seen[id] {
			report.Rejected = append(report.Rejected, RecordError{Source: source, Index: i, ID: id, Err: ErrDuplicateRecord})
			continue
		}
		seen[id] = true

		existing, err := p.repo.GetRecord(ctx, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			toAdd = append(toAdd, r)
		case err != nil:
			return nil, err
		case core.Fingerprint(existing) == prints[i]:
			report.Unchanged++
		default:
			toUpdate = append(toUpdate, r)
		}
	}

	if len(toAdd) > 0 || len(toUpdate) > 0 {
		err := p.repo.WithTransaction(ctx, func(ctx context.Context) error {
			if len(toAdd) > 0 {
				if err := p.repo.AddRecords(ctx, toAdd...); err != nil {
					return err
				}
			}
			if len(toUpdate) > 0 {
				if err := p.repo.UpdateRecords(ctx, toUpdate...); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	report.Added = len(toAdd)
	report.Updated = len(toUpdate)

	for _, rej := range report.Rejected {
		p.logger.Warn("rejected record", "source", source, "index", rej.Index, "id", rej.ID, "err", rej.Err)
	}
	p.logger.Info("import complete", "source", source,
		"added", report.Added, "updated", report.Updated,
		"unchanged", report.Unchanged, "rejected", len(report.Rejected))
	return report, nil
}

// ImportFiles imports every catalog file matched by patterns, in sorted
// path order. Patterns are file paths or doublestar globs. A file that
// fails to parse aborts the import before anything from it is written.
func (p *Pipeline) ImportFiles(ctx context.Context, patterns ...string) (*Report, error) {
	paths, err := ExpandPatterns(patterns...)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, path := range paths {
		records, err := catalog.LoadFile(path)
		if err != nil {
			return report, err
		}
		fileReport, err := p.importRecords(ctx, path, records)
		if err != nil {
			return report, fmt.Errorf("importing %s: %w", path, err)
		}
		fileReport.Files = 1
		report.merge(fileReport)
	}
	return report, nil
}

// ExpandPatterns resolves file paths and doublestar globs to a sorted,
// de-duplicated list of files. It returns ErrNoFiles when nothing matches.
func ExpandPatterns(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr == nil {
				matches = []string{pattern}
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoFiles, patterns)
	}
	slices.Sort(paths)
	return paths, nil
}
