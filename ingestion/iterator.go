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

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
)

// DefaultBatchSize is the iterator batch size when none is given.
const DefaultBatchSize = 50

// RecordIterator walks a catalog repository in insertion order, one batch
// at a time.
type RecordIterator struct {
	repo      storage.CatalogRepository
	batchSize int
	language  core.Language
	after     string
}

// NewRecordIterator creates an iterator over repo. batchSize <= 0 uses
// DefaultBatchSize.
func NewRecordIterator(repo storage.CatalogRepository, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &RecordIterator{repo: repo, batchSize: batchSize}
}

// Language returns a copy of the iterator restricted to one language.
func (it *RecordIterator) Language(lang core.Language) *RecordIterator {
	c := *it
	c.language = lang
	return &c
}

// StartAfter returns a copy of the iterator that skips every record up to
// and including id. An id that is no longer in the catalog restarts from
// the beginning.
func (it *RecordIterator) StartAfter(id string) *RecordIterator {
	c := *it
	c.after = id
	return &c
}

func (it *RecordIterator) remaining(ctx context.Context) ([]*core.FunctionRecord, error) {
	records, err := it.repo.ListRecords(ctx, it.language)
	if err != nil {
		return nil, err
	}
	if it.after == "" {
		return records, nil
	}
	for i, r := range records {
		if r.ID == it.after {
			return records[i+1:], nil
		}
	}
	return records, nil
}

// Count returns how many records the iterator will visit.
func (it *RecordIterator) Count(ctx context.Context) (int, error) {
	records, err := it.remaining(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ForEach calls fn with successive batches. Iteration stops at the first
// error from fn or when ctx is done.
func (it *RecordIterator) ForEach(ctx context.Context, fn func(batch []*core.FunctionRecord) error) error {
	records, err := it.remaining(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(records); start += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+it.batchSize, len(records))
		if err := fn(records[start:end]); err != nil {
			return err
		}
	}
	return nil
}
