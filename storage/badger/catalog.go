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

package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
)

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
//
// Layout: the primary key funrec:<id> holds the record and its insertion
// sequence; funord:<seq> and funlang:<language>:<seq> are order indexes
// pointing back at the ID.
type CatalogRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend) (*CatalogRepository, error) {
	seq, err := backend.GetSequence(functionRecordSeq)
	if err != nil {
		return nil, err
	}

	return &CatalogRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the insertion sequence.
func (r *CatalogRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.seq.Release()
}

// WithTransaction delegates to the backend.
func (r *CatalogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddRecords adds one or more records to storage.
func (r *CatalogRepository) AddRecords(ctx context.Context, records ...*core.FunctionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]bool, len(records))
		for _, record := range records {
			if record == nil {
				return fmt.Errorf("%w: record is nil", core.ErrInvalidRecord)
			}
			if seen[record.ID] {
				return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, record.ID)
			}
			seen[record.ID] = true

			key := makeRecordKey(record.ID)
			if _, err := tx.Get(key); err == nil {
				return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, record.ID)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			seq, err := r.nextSeq()
			if err != nil {
				return err
			}

			// Store primary record
			value, err := storage.MarshalRecord(seq, record)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update order indexes
			if err := setIndexes(tx, record, seq); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// UpdateRecords updates existing records in place.
func (r *CatalogRepository) UpdateRecords(ctx context.Context, records ...*core.FunctionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record == nil {
				return fmt.Errorf("%w: record is nil", core.ErrInvalidRecord)
			}
			key := makeRecordKey(record.ID)

			// Read old record to detect changes
			seq, old, err := readRecord(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, record.ID)
			}

			// Store updated record
			value, err := storage.MarshalRecord(seq, record)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Move the language index entry if the language changed
			if old.Language != record.Language {
				if err := tx.Delete(makeLanguageKey(old.Language, seq)); err != nil {
					return err
				}
				if err := tx.Set(makeLanguageKey(record.Language, seq), []byte(record.ID)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteRecords removes records by their IDs.
func (r *CatalogRepository) DeleteRecords(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRecordKey(id)

			// Read record to get metadata for index cleanup
			seq, record, err := readRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
			}

			if err := tx.Delete(makeOrderKey(seq)); err != nil {
				return err
			}
			if err := tx.Delete(makeLanguageKey(record.Language, seq)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetRecord retrieves a single record by ID.
func (r *CatalogRepository) GetRecord(ctx context.Context, id string) (*core.FunctionRecord, error) {
	var result *core.FunctionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		_, result, err = readRecord(tx, makeRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// ListRecords returns records in insertion order, optionally restricted
// to one language through the language index.
func (r *CatalogRepository) ListRecords(ctx context.Context, language core.Language) ([]*core.FunctionRecord, error) {
	prefix := orderKeyPrefix()
	if language != "" {
		prefix = languageKeyPrefix(language)
	}

	results := []*core.FunctionRecord{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanIndex(ctx, tx, prefix, func(record *core.FunctionRecord) {
			results = append(results, record)
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchRecords performs a case-insensitive substring search over names,
// descriptions and keywords.
func (r *CatalogRepository) SearchRecords(ctx context.Context, term string, language core.Language, limit int) ([]*core.FunctionRecord, error) {
	records, err := r.ListRecords(ctx, language)
	if err != nil {
		return nil, err
	}

	matches := make([]*core.FunctionRecord, 0, len(records))
	for _, record := range records {
		if storage.MatchesTerm(record, term) {
			matches = append(matches, record)
		}
	}
	storage.SortByPopularity(matches)

	if limit = storage.SearchLimit(limit); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Stats counts records per language by walking the language index.
func (r *CatalogRepository) Stats(ctx context.Context) (core.CatalogStats, error) {
	stats := storage.NewStats()
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for _, lang := range core.Languages {
			prefix := languageKeyPrefix(lang)
			for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
				stats.ByLanguage[lang]++
				stats.Total++
			}
		}
		return nil
	}, false)
	return stats, err
}

// nextSeq returns the next insertion sequence number.
func (r *CatalogRepository) nextSeq() (uint64, error) {
	seq, err := r.seq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if seq == 0 {
		return r.seq.Next()
	}
	return seq, nil
}

// Helper methods

func setIndexes(tx *badger.Txn, record *core.FunctionRecord, seq uint64) error {
	if err := tx.Set(makeOrderKey(seq), []byte(record.ID)); err != nil {
		return err
	}
	return tx.Set(makeLanguageKey(record.Language, seq), []byte(record.ID))
}

// scanIndex resolves every ID stored under an order index prefix.
func scanIndex(ctx context.Context, tx *badger.Txn, prefix []byte, fn func(*core.FunctionRecord)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := iter.Item()
		if !bytes.HasPrefix(item.Key(), prefix) {
			break
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		_, record, err := readRecord(tx, makeRecordKey(string(id)))
		if err != nil {
			return err
		}
		// A dangling index entry means the record was removed mid-scan
		if record != nil {
			fn(record)
		}
	}
	return nil
}

// readRecord reads a record from the transaction. A missing key returns
// a nil record and no error.
func readRecord(tx *badger.Txn, key []byte) (uint64, *core.FunctionRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	var seq uint64
	var record *core.FunctionRecord
	err = item.Value(func(val []byte) error {
		var err error
		seq, record, err = storage.UnmarshalRecord(val)
		return err
	})
	return seq, record, err
}
