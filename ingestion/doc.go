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


// Package ingestion moves function records into a catalog repository.
//
// A Pipeline imports records from memory or from catalog files. Records are
// validated concurrently on a worker pool, then written in input order
// inside a single transaction. Re-importing an unchanged record is a no-op.
//
// An Enricher walks the stored catalog and asks an ai.Tagger for extra
// keywords for sparsely tagged records. Progress is checkpointed per batch
// so an interrupted run resumes where it stopped.
package ingestion
