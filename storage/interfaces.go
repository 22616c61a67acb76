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

package storage

import (
	"context"

	"github.com/poiesic/funcrec/core"
)

// DefaultSearchLimit caps SearchRecords when the caller passes limit <= 0.
const DefaultSearchLimit = 100

type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

type CatalogRepository interface {
	Repository
	// AddRecords stores new catalog records. Records are appended to the
	// insertion order in argument order.
	// Returns ErrDuplicateKey if any ID already exists; nothing is written.
	AddRecords(ctx context.Context, records ...*core.FunctionRecord) error

	// UpdateRecords replaces existing records. Insertion order is kept.
	// Returns ErrNotFound if any record doesn't exist; nothing is written.
	UpdateRecords(ctx context.Context, records ...*core.FunctionRecord) error

	// DeleteRecords removes records by ID.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteRecords(ctx context.Context, ids ...string) error

	// GetRecord retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id string) (*core.FunctionRecord, error)

	// ListRecords returns all records in insertion order. A non-empty
	// language restricts the result to that language.
	ListRecords(ctx context.Context, language core.Language) ([]*core.FunctionRecord, error)

	// SearchRecords returns records whose name, description or any keyword
	// contains term (case-insensitive), most popular first, ties in
	// insertion order. A limit <= 0 means DefaultSearchLimit.
	SearchRecords(ctx context.Context, term string, language core.Language, limit int) ([]*core.FunctionRecord, error)

	// Stats counts records per language.
	Stats(ctx context.Context) (core.CatalogStats, error)
}

// CheckpointRepository persists progress markers for resumable processors.
type CheckpointRepository interface {
	// SaveCheckpoint stores the checkpoint for checkpoint.Processor,
	// replacing any previous one. UpdatedAt is set automatically.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the processor's checkpoint, or nil, nil if none exists.
	LoadCheckpoint(ctx context.Context, processor string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the processor's checkpoint. Missing is not an error.
	DeleteCheckpoint(ctx context.Context, processor string) error
}
