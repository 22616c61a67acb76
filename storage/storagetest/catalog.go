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

// Package storagetest holds the behavioral tests every storage backend
// must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
)

// Factory returns a fresh, empty repository. The suite closes it.
type Factory func(t *testing.T) storage.CatalogRepository

// CheckpointFactory returns a fresh checkpoint repository.
type CheckpointFactory func(t *testing.T) storage.CheckpointRepository

// Record builds a valid record for tests.
func Record(id string, lang core.Language, popularity int, keywords ...string) *core.FunctionRecord {
	return &core.FunctionRecord{
		ID:          id,
		Name:        id,
		Description: "Description of " + id,
		Code:        "code for " + id,
		Language:    lang,
		Keywords:    keywords,
		Action:      core.ActionSort,
		DataType:    core.DataTypeList,
		Popularity:  popularity,
	}
}

func recordIDs(records []*core.FunctionRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// RunCatalogTests exercises a CatalogRepository implementation.
func RunCatalogTests(t *testing.T, newRepo Factory) {
	open := func(t *testing.T) storage.CatalogRepository {
		repo := newRepo(t)
		t.Cleanup(func() { repo.Close() })
		return repo
	}

	t.Run("AddAndGet", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		want := Record("merge_dicts", core.LanguagePython, 8, "merge", "combine")
		want.Order = core.OrderNone
		want.Usage = "merge_dicts(a, b)"
		want.Complexity = "O(n)"
		require.NoError(t, repo.AddRecords(ctx, want))

		got, err := repo.GetRecord(ctx, "merge_dicts")
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = repo.GetRecord(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		require.NoError(t, repo.AddRecords(ctx, Record("a", core.LanguageGo, 5)))
		err := repo.AddRecords(ctx, Record("b", core.LanguageGo, 5), Record("a", core.LanguageGo, 5))
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		// The failed batch is not partially applied
		_, err = repo.GetRecord(ctx, "b")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = repo.AddRecords(ctx, Record("c", core.LanguageGo, 5), Record("c", core.LanguageGo, 5))
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("InsertionOrder", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		require.NoError(t, repo.AddRecords(ctx,
			Record("zeta", core.LanguagePython, 1),
			Record("alpha", core.LanguageJavaScript, 9),
		))
		require.NoError(t, repo.AddRecords(ctx,
			Record("mid", core.LanguagePython, 5),
			Record("beta", core.LanguageJavaScript, 5),
		))

		all, err := repo.ListRecords(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha", "mid", "beta"}, recordIDs(all))

		py, err := repo.ListRecords(ctx, core.LanguagePython)
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "mid"}, recordIDs(py))

		rust, err := repo.ListRecords(ctx, core.LanguageRust)
		require.NoError(t, err)
		assert.NotNil(t, rust)
		assert.Empty(t, rust)
	})

	t.Run("Update", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		require.NoError(t, repo.AddRecords(ctx,
			Record("first", core.LanguagePython, 5, "old"),
			Record("second", core.LanguagePython, 5),
		))

		updated := Record("first", core.LanguageGo, 7, "new", "fresh")
		require.NoError(t, repo.UpdateRecords(ctx, updated))

		got, err := repo.GetRecord(ctx, "first")
		require.NoError(t, err)
		assert.Equal(t, updated, got)

		// Position is kept and the language index follows the change
		all, err := repo.ListRecords(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, recordIDs(all))

		py, err := repo.ListRecords(ctx, core.LanguagePython)
		require.NoError(t, err)
		assert.Equal(t, []string{"second"}, recordIDs(py))
		goRecords, err := repo.ListRecords(ctx, core.LanguageGo)
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, recordIDs(goRecords))

		err = repo.UpdateRecords(ctx, Record("missing", core.LanguageGo, 5))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		require.NoError(t, repo.AddRecords(ctx,
			Record("a", core.LanguagePython, 5),
			Record("b", core.LanguagePython, 5),
			Record("c", core.LanguageRust, 5),
		))
		require.NoError(t, repo.DeleteRecords(ctx, "b", "c"))

		all, err := repo.ListRecords(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, recordIDs(all))

		rust, err := repo.ListRecords(ctx, core.LanguageRust)
		require.NoError(t, err)
		assert.Empty(t, rust)

		assert.ErrorIs(t, repo.DeleteRecords(ctx, "b"), storage.ErrNotFound)

		// A deleted ID can be reused and goes to the end
		require.NoError(t, repo.AddRecords(ctx, Record("b", core.LanguagePython, 5)))
		all, err = repo.ListRecords(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, recordIDs(all))
	})

	t.Run("Search", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		dedupe := Record("remove_duplicates", core.LanguagePython, 9, "unique")
		dedupe.Description = "Removes duplicate items"
		sortUnique := Record("sort_unique_desc", core.LanguagePython, 7, "sort", "unique")
		jsUnique := Record("uniqueValues", core.LanguageJavaScript, 9)
		other := Record("flatten_list", core.LanguagePython, 6, "nested")
		require.NoError(t, repo.AddRecords(ctx, sortUnique, dedupe, jsUnique, other))

		got, err := repo.SearchRecords(ctx, "UNIQUE", "", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"remove_duplicates", "uniqueValues", "sort_unique_desc"}, recordIDs(got))

		got, err = repo.SearchRecords(ctx, "unique", core.LanguagePython, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"remove_duplicates", "sort_unique_desc"}, recordIDs(got))

		got, err = repo.SearchRecords(ctx, "unique", "", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"remove_duplicates"}, recordIDs(got))

		got, err = repo.SearchRecords(ctx, "duplicate items", "", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"remove_duplicates"}, recordIDs(got))

		got, err = repo.SearchRecords(ctx, "nothing-matches", "", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Stats", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Total)

		require.NoError(t, repo.AddRecords(ctx,
			Record("a", core.LanguagePython, 5),
			Record("b", core.LanguagePython, 5),
			Record("c", core.LanguageJavaScript, 5),
		))
		stats, err = repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.ByLanguage[core.LanguagePython])
		assert.Equal(t, 1, stats.ByLanguage[core.LanguageJavaScript])
		assert.Zero(t, stats.ByLanguage[core.LanguageRust])
	})

	t.Run("ConcurrentAdds", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					id := fmt.Sprintf("w%d_%d", w, i)
					if err := repo.AddRecords(ctx, Record(id, core.LanguageGo, 5)); err != nil {
						errs <- err
						return
					}
				}
			}(w)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}

		all, err := repo.ListRecords(ctx, core.LanguageGo)
		require.NoError(t, err)
		assert.Len(t, all, 80)
	})
}

// RunCheckpointTests exercises a CheckpointRepository implementation.
func RunCheckpointTests(t *testing.T, newRepo CheckpointFactory) {
	ctx := context.Background()
	repo := newRepo(t)

	got, err := repo.LoadCheckpoint(ctx, "enricher")
	require.NoError(t, err)
	assert.Nil(t, got)

	cp := &core.Checkpoint{Processor: "enricher", LastID: "merge_dicts", Processed: 3}
	require.NoError(t, repo.SaveCheckpoint(ctx, cp))
	assert.False(t, cp.UpdatedAt.IsZero())

	got, err = repo.LoadCheckpoint(ctx, "enricher")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "merge_dicts", got.LastID)
	assert.Equal(t, 3, got.Processed)

	cp.LastID = "sort_unique_desc"
	cp.Processed = 9
	require.NoError(t, repo.SaveCheckpoint(ctx, cp))
	got, err = repo.LoadCheckpoint(ctx, "enricher")
	require.NoError(t, err)
	assert.Equal(t, "sort_unique_desc", got.LastID)

	other, err := repo.LoadCheckpoint(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repo.DeleteCheckpoint(ctx, "enricher"))
	require.NoError(t, repo.DeleteCheckpoint(ctx, "enricher"))
	got, err = repo.LoadCheckpoint(ctx, "enricher")
	require.NoError(t, err)
	assert.Nil(t, got)
}
