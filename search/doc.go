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

// Package search ranks catalog functions against free-text queries.
//
// Ranking is a pipeline of pure stages:
//   - intent extraction (package intent) turns the query into tags and keywords
//   - the Scorer rates each record with additive weighted signals, then
//     applies an ordered list of disambiguation Rules
//   - Rank sorts by score, popularity, description match and catalog order
//     and truncates to the requested count
//
// Recommender wraps the pipeline with argument validation, a result cache
// and request coalescing. An explicit language argument filters the catalog;
// a language named inside the query only influences scores.
package search
