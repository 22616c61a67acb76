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

import "github.com/poiesic/funcrec/storage"

// Store bundles the repositories sharing one Badger database.
type Store struct {
	Catalog     *CatalogRepository
	Checkpoints *CheckpointRepository
	backend     *Backend
}

// Open opens (or creates) a Badger database at path. An empty path opens
// an in-memory database.
func Open(path string) (*Store, error) {
	backend, err := OpenBackend(path, path == "")
	if err != nil {
		return nil, err
	}

	catalog, err := NewCatalogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Store{
		Catalog:     catalog,
		Checkpoints: NewCheckpointRepository(backend),
		backend:     backend,
	}, nil
}

// Close releases the repositories and closes the database.
func (s *Store) Close() error {
	catalogErr := s.Catalog.Close()
	if err := s.backend.Close(); err != nil {
		return err
	}
	return catalogErr
}

// NewRepository opens a Badger-backed catalog repository at path.
// Closing the repository closes the database.
func NewRepository(path string) (storage.CatalogRepository, error) {
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &ownedCatalog{CatalogRepository: store.Catalog, store: store}, nil
}

// NewMemoryRepository creates an in-memory catalog repository for testing.
func NewMemoryRepository() (storage.CatalogRepository, error) {
	return NewRepository("")
}

// ownedCatalog closes the whole store when the repository is closed.
type ownedCatalog struct {
	*CatalogRepository
	store *Store
}

func (o *ownedCatalog) Close() error {
	return o.store.Close()
}
