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

package search

import (
	"sort"

	"github.com/poiesic/funcrec/core"
)

// Rank scores every record and returns at most topK results ordered by
// score, then popularity, then description match. Remaining ties keep
// catalog order. An empty catalog yields an empty, non-nil slice.
func Rank(scorer *Scorer, in *core.Intent, records []*core.FunctionRecord, topK int) ([]core.ScoredResult, error) {
	if err := core.ValidateTopK(topK); err != nil {
		return nil, err
	}

	q := NewQuery(in)
	rules := scorer.activeRules(q)
	results := make([]core.ScoredResult, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		res, _ := scorer.score(q, rules, r, false)
		results = append(results, res)
	}

	sortResults(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// sortResults orders results in place. The sort is stable so that records
// that tie on every key stay in catalog order.
func sortResults(results []core.ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Popularity() != b.Popularity() {
			return a.Popularity() > b.Popularity()
		}
		return a.DescriptionMatch && !b.DescriptionMatch
	})
}
