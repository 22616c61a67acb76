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
	"slices"
	"strings"

	"github.com/poiesic/funcrec/core"
)

// MatchesTerm reports whether term occurs, ignoring case, in the record's
// name, description or any of its keywords. An empty term matches all.
func MatchesTerm(r *core.FunctionRecord, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Name), term) ||
		strings.Contains(strings.ToLower(r.Description), term) {
		return true
	}
	for _, k := range r.Keywords {
		if strings.Contains(strings.ToLower(k), term) {
			return true
		}
	}
	return false
}

// SortByPopularity orders records most popular first. The sort is stable
// so equal popularity keeps insertion order.
func SortByPopularity(records []*core.FunctionRecord) {
	slices.SortStableFunc(records, func(a, b *core.FunctionRecord) int {
		return b.Popularity - a.Popularity
	})
}

// SearchLimit resolves a caller-supplied search limit.
func SearchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}

// NewStats returns empty stats with the language map allocated.
func NewStats() core.CatalogStats {
	return core.CatalogStats{ByLanguage: make(map[core.Language]int)}
}
