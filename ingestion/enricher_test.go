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
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/funcrec/ai"
	"github.com/poiesic/funcrec/ai/mock"
	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
	"github.com/poiesic/funcrec/storage/sqlite"
	"github.com/poiesic/funcrec/storage/storagetest"
)

func testEnrichConfig() EnrichConfig {
	cfg := DefaultEnrichConfig()
	cfg.BatchSize = 2
	cfg.MinKeywords = 2
	cfg.Retry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return cfg
}

func newTestEnricher(t *testing.T, db *sqlite.DB, tagger ai.Tagger, cfg EnrichConfig) *Enricher {
	t.Helper()
	e, err := NewEnricher(db, tagger,
		WithCheckpoints(db),
		WithEnrichConfig(cfg),
		WithConcurrency(2),
	)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e
}

func TestNewEnricherValidation(t *testing.T) {
	db := newTestDB(t)

	_, err := NewEnricher(nil, mock.NewMockTagger())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewEnricher(db, nil)
	assert.ErrorIs(t, err, ErrTaggerRequired)

	_, err = NewEnricher(db, mock.NewMockTagger(), WithEnrichConfig(EnrichConfig{}))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestEnricherTagsSparseRecords(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	sparse := storagetest.Record("reverse_string", core.LanguagePython, 5)
	sparse.Description = "Reverses a string"
	sparse.Action = ""
	require.NoError(t, db.AddRecords(ctx,
		sparse,
		storagetest.Record("tagged", core.LanguagePython, 5, "sort", "list"),
	))

	tagger := mock.NewMockTagger()
	tagger.SuggestTagsFunc = func(_ context.Context, r *core.FunctionRecord) (*ai.TagSuggestion, error) {
		return &ai.TagSuggestion{Keywords: []string{"Reverse", "string", "reverse"}, Action: "reverse"}, nil
	}

	var progress bytes.Buffer
	e, err := NewEnricher(db, tagger, WithCheckpoints(db), WithEnrichConfig(testEnrichConfig()), WithEnrichProgress(&progress))
	require.NoError(t, err)
	defer e.Release()

	report, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Tagged)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, tagger.CallCount(), "well tagged records are not sent")
	require.Len(t, report.Changes, 1)
	assert.Equal(t, []string{"reverse", "string"}, report.Changes[0].After)
	assert.Contains(t, progress.String(), "Enriching: 2/2")

	got, err := db.GetRecord(ctx, "reverse_string")
	require.NoError(t, err)
	assert.Equal(t, []string{"reverse", "string"}, got.Keywords)
	assert.Equal(t, core.ActionReverse, got.Action)

	cp, err := db.LoadCheckpoint(ctx, EnricherProcessor)
	require.NoError(t, err)
	assert.Nil(t, cp, "checkpoint is cleared after a full run")
}

func TestEnricherDryRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.AddRecords(ctx, storagetest.Record("a", core.LanguagePython, 5)))

	cfg := testEnrichConfig()
	cfg.DryRun = true
	e := newTestEnricher(t, db, mock.NewMockTagger(), cfg)

	report, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Changes, 1)
	assert.Zero(t, report.Updated)

	got, err := db.GetRecord(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got.Keywords)
}

func TestEnricherRetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.AddRecords(ctx, storagetest.Record("a", core.LanguagePython, 5)))

	var calls atomic.Int32
	tagger := mock.NewMockTagger()
	tagger.SuggestTagsFunc = func(context.Context, *core.FunctionRecord) (*ai.TagSuggestion, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("connection reset")
		}
		return &ai.TagSuggestion{Keywords: []string{"x", "y"}}, nil
	}

	report, err := newTestEnricher(t, db, tagger, testEnrichConfig()).Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, 1, report.Updated)
	assert.Zero(t, report.Failed)
}

func TestEnricherMalformedResponseIsNotRetried(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.AddRecords(ctx,
		storagetest.Record("a", core.LanguagePython, 5),
		storagetest.Record("b", core.LanguagePython, 5),
	))

	tagger := mock.NewMockTagger()
	tagger.SuggestTagsFunc = func(_ context.Context, r *core.FunctionRecord) (*ai.TagSuggestion, error) {
		if r.ID == "a" {
			return nil, ai.ErrMalformedResponse
		}
		return &ai.TagSuggestion{Keywords: []string{"b1", "b2"}}, nil
	}

	report, err := newTestEnricher(t, db, tagger, testEnrichConfig()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, tagger.CallCount())
}

func TestEnricherResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedRecords(t, db, 5)

	// Fail hard on the third batch to leave a checkpoint behind.
	tagger := mock.NewMockTagger()
	tagger.SuggestTagsFunc = func(_ context.Context, r *core.FunctionRecord) (*ai.TagSuggestion, error) {
		return &ai.TagSuggestion{Keywords: []string{"k1", "k2"}}, nil
	}
	failing := &failOnUpdate{CatalogRepository: db, failAt: 3}
	e, err := NewEnricher(failing, tagger, WithCheckpoints(db), WithEnrichConfig(testEnrichConfig()))
	require.NoError(t, err)
	defer e.Release()

	_, err = e.Run(ctx)
	require.Error(t, err)

	cp, err := db.LoadCheckpoint(ctx, EnricherProcessor)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "d", cp.LastID)
	assert.Equal(t, 4, cp.Processed)

	tagger.Reset()
	report, err := newTestEnricher(t, db, tagger, testEnrichConfig()).Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Resumed)
	assert.Equal(t, 1, report.Examined)
	assert.Equal(t, 1, tagger.CallCount())

	cp, err = db.LoadCheckpoint(ctx, EnricherProcessor)
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestEnricherStopsOnCancel(t *testing.T) {
	db := newTestDB(t)
	seedRecords(t, db, 3)

	ctx, cancel := context.WithCancel(context.Background())
	tagger := mock.NewMockTagger()
	tagger.SuggestTagsFunc = func(context.Context, *core.FunctionRecord) (*ai.TagSuggestion, error) {
		cancel()
		return &ai.TagSuggestion{}, nil
	}

	_, err := newTestEnricher(t, db, tagger, testEnrichConfig()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// failOnUpdate fails the failAt-th call to UpdateRecords.
type failOnUpdate struct {
	storage.CatalogRepository
	failAt int
	calls  int
}

func (f *failOnUpdate) UpdateRecords(ctx context.Context, records ...*core.FunctionRecord) error {
	f.calls++
	if f.calls == f.failAt {
		return errors.New("write failed")
	}
	return f.CatalogRepository.UpdateRecords(ctx, records...)
}
