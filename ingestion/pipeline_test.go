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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
	"github.com/poiesic/funcrec/storage/sqlite"
	"github.com/poiesic/funcrec/storage/storagetest"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestPipeline(t *testing.T, repo storage.CatalogRepository) *Pipeline {
	t.Helper()
	p, err := NewPipeline(repo, WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func recordIDs(records []*core.FunctionRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func TestNewPipelineRequiresRepository(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestPipelineImport(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	p := newTestPipeline(t, db)

	report, err := p.Import(ctx, []*core.FunctionRecord{
		storagetest.Record("a", core.LanguagePython, 5, "sort"),
		storagetest.Record("b", core.LanguageGo, 7),
		storagetest.Record("c", core.LanguageRust, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Added)
	assert.Empty(t, report.Rejected)

	all, err := db.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, recordIDs(all), "input order is kept")
}

func TestPipelineImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	p := newTestPipeline(t, db)

	records := []*core.FunctionRecord{
		storagetest.Record("a", core.LanguagePython, 5),
		storagetest.Record("b", core.LanguagePython, 5),
	}
	_, err := p.Import(ctx, records)
	require.NoError(t, err)

	changed := records[1].Clone()
	changed.Description = "now with a better description"
	report, err := p.Import(ctx, []*core.FunctionRecord{records[0], changed})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 2, report.Total())

	got, err := db.GetRecord(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, changed.Description, got.Description)
}

func TestPipelineImportRejectsBadRecords(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	p := newTestPipeline(t, db)

	badPopularity := storagetest.Record("bad", core.LanguagePython, 11)
	report, err := p.Import(ctx, []*core.FunctionRecord{
		storagetest.Record("a", core.LanguagePython, 5),
		badPopularity,
		nil,
		storagetest.Record("a", core.LanguageGo, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	require.Len(t, report.Rejected, 3)

	assert.Equal(t, 1, report.Rejected[0].Index)
	assert.ErrorIs(t, report.Rejected[0], core.ErrInvalidRecord)
	assert.ErrorIs(t, report.Rejected[1], core.ErrInvalidRecord)
	assert.ErrorIs(t, report.Rejected[2], ErrDuplicateRecord)
	assert.Contains(t, report.Rejected[2].Error(), "[3] a")

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestPipelineImportEmpty(t *testing.T) {
	p := newTestPipeline(t, newTestDB(t))
	report, err := p.Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Total())
}

// failingRepo fails every write.
type failingRepo struct {
	storage.CatalogRepository
}

func (failingRepo) AddRecords(context.Context, ...*core.FunctionRecord) error {
	return errors.New("disk full")
}

func TestPipelineImportWriteFailure(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(t, failingRepo{db})

	_, err := p.Import(context.Background(), []*core.FunctionRecord{storagetest.Record("a", core.LanguagePython, 5)})
	require.Error(t, err)

	stats, err := db.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func writeCatalog(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestPipelineImportFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeCatalog(t, filepath.Join(dir, "base.yaml"), `
functions:
  - name: merge_dicts
    description: Merges two dictionaries
    code: "def merge_dicts(a, b): return {**a, **b}"
    keywords: [merge, dict]
`)
	writeCatalog(t, filepath.Join(dir, "js", "extra.json"), `[
  {"name": "chunk", "code": "const chunk = () => {}", "language": "javascript", "keywords": ["chunk"]}
]`)
	writeCatalog(t, filepath.Join(dir, "notes.txt"), "ignored")

	db := newTestDB(t)
	p := newTestPipeline(t, db)

	report, err := p.ImportFiles(ctx, filepath.Join(dir, "**", "*.{yaml,json}"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 2, report.Added)

	r, err := db.GetRecord(ctx, "chunk_javascript")
	require.NoError(t, err)
	assert.Equal(t, core.LanguageJavaScript, r.Language)

	_, err = db.GetRecord(ctx, "merge_dicts_python")
	require.NoError(t, err)
}

func TestPipelineImportFilesMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	writeCatalog(t, path, "functions: [\n")

	p := newTestPipeline(t, newTestDB(t))
	_, err := p.ImportFiles(context.Background(), path)
	assert.Error(t, err)
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml", "sub/c.yaml", "sub/d.toml"} {
		writeCatalog(t, filepath.Join(dir, name), "functions: []\n")
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
		err      error
	}{
		{"plain path", []string{filepath.Join(dir, "a.yaml")}, []string{"a.yaml"}, nil},
		{"glob", []string{filepath.Join(dir, "*.yaml")}, []string{"a.yaml", "b.yaml"}, nil},
		{"recursive", []string{filepath.Join(dir, "**", "*.yaml")}, []string{"a.yaml", "b.yaml", "sub/c.yaml"}, nil},
		{"deduplicated", []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "*.yaml")}, []string{"a.yaml", "b.yaml"}, nil},
		{"no match", []string{filepath.Join(dir, "*.json")}, nil, ErrNoFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPatterns(tt.patterns...)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.Join(dir, filepath.FromSlash(w))
			}
			assert.Equal(t, want, got)
		})
	}
}

func ExampleRecordError() {
	err := RecordError{Source: "funcs.yaml", Index: 2, ID: "x", Err: ErrDuplicateRecord}
	fmt.Println(err)
	// Output: funcs.yaml[2] x: duplicate record in import
}
