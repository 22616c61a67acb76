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

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/funcrec/core"
)

// Source supplies records in insertion order. storage.CatalogRepository
// satisfies it.
type Source interface {
	ListRecords(ctx context.Context, language core.Language) ([]*core.FunctionRecord, error)
}

// Records is an in-memory Source.
type Records []*core.FunctionRecord

// ListRecords returns the records matching language in slice order.
func (rs Records) ListRecords(_ context.Context, language core.Language) ([]*core.FunctionRecord, error) {
	out := make([]*core.FunctionRecord, 0, len(rs))
	for _, r := range rs {
		if r != nil && (language == "" || r.Language == language) {
			out = append(out, r)
		}
	}
	return out, nil
}

type snapshot struct {
	records    []*core.FunctionRecord
	byLanguage map[core.Language][]*core.FunctionRecord
	loadedAt   time.Time
}

// Accessor serves a read-only catalog snapshot.
type Accessor struct {
	source Source
	snap   atomic.Pointer[snapshot]
	mu     sync.Mutex // serializes reloads
	logger *slog.Logger
}

// Option configures an Accessor.
type Option func(*Accessor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Accessor) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAccessor creates an accessor over source. The first snapshot is
// loaded lazily on the first read, or eagerly with Reload.
func NewAccessor(source Source, opts ...Option) (*Accessor, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	a := &Accessor{
		source: source,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Reload reads the source and atomically replaces the snapshot. Invalid
// and duplicate records are logged and left out. On error the previous
// snapshot stays in place.
func (a *Accessor) Reload(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reloadLocked(ctx)
}

func (a *Accessor) reloadLocked(ctx context.Context) error {
	records, err := a.source.ListRecords(ctx, "")
	if err != nil {
		if errors.Is(err, core.ErrCatalogUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrCatalogUnavailable, err)
	}

	snap := &snapshot{
		records:    make([]*core.FunctionRecord, 0, len(records)),
		byLanguage: make(map[core.Language][]*core.FunctionRecord),
		loadedAt:   time.Now(),
	}
	seen := make(map[string]bool, len(records))
	skipped := 0
	for _, r := range records {
		if err := core.ValidateFunctionRecord(r); err != nil {
			a.logger.Warn("skipping invalid catalog record", "err", err)
			skipped++
			continue
		}
		if seen[r.ID] {
			a.logger.Warn("skipping duplicate catalog record", "id", r.ID)
			skipped++
			continue
		}
		seen[r.ID] = true
		// Snapshots own their records so later source mutations are invisible.
		c := r.Clone()
		snap.records = append(snap.records, c)
		snap.byLanguage[c.Language] = append(snap.byLanguage[c.Language], c)
	}

	a.snap.Store(snap)
	a.logger.Info("catalog loaded", "records", len(snap.records), "skipped", skipped)
	return nil
}

func (a *Accessor) current(ctx context.Context) (*snapshot, error) {
	if s := a.snap.Load(); s != nil {
		return s, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	// Another caller may have loaded while we waited.
	if s := a.snap.Load(); s != nil {
		return s, nil
	}
	if err := a.reloadLocked(ctx); err != nil {
		return nil, err
	}
	return a.snap.Load(), nil
}

// ListRecords returns the snapshot records for language (all languages
// when empty) in insertion order. The returned slice is the caller's; the
// records are shared and must not be modified.
func (a *Accessor) ListRecords(ctx context.Context, language core.Language) ([]*core.FunctionRecord, error) {
	s, err := a.current(ctx)
	if err != nil {
		return nil, err
	}
	src := s.records
	if language != "" {
		src = s.byLanguage[language]
	}
	out := make([]*core.FunctionRecord, len(src))
	copy(out, src)
	return out, nil
}

// Stats summarizes the current snapshot.
func (a *Accessor) Stats(ctx context.Context) (core.CatalogStats, error) {
	s, err := a.current(ctx)
	if err != nil {
		return core.CatalogStats{}, err
	}
	stats := core.CatalogStats{
		Total:      len(s.records),
		ByLanguage: make(map[core.Language]int, len(s.byLanguage)),
	}
	for lang, records := range s.byLanguage {
		stats.ByLanguage[lang] = len(records)
	}
	return stats, nil
}

// LoadedAt reports when the current snapshot was built. It is zero before
// the first load.
func (a *Accessor) LoadedAt() time.Time {
	if s := a.snap.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}
