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

// Package catalog serves the function catalog to the recommender and reads
// catalog files.
//
// An Accessor holds an immutable snapshot of every valid record in
// insertion order. Reload builds a new snapshot from the backing source and
// swaps it in atomically, so readers never observe a partially loaded
// catalog.
//
// Catalog files may be JSON, YAML or TOML. The package embeds a seed
// catalog covering every supported language.
package catalog
