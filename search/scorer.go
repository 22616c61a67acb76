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
	"math"
	"strings"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/intent"
)

// minVariantLength keeps short names like "sum" from matching inside
// unrelated queries.
const minVariantLength = 4

// Contribution is one signal's share of a score.
type Contribution struct {
	Signal string  `json:"signal"`
	Value  float64 `json:"value"`
}

// Scorer computes query/record relevance. It holds only immutable
// configuration and is safe for concurrent use.
type Scorer struct {
	weights Weights
	rules   []Rule
}

// NewScorer creates a scorer. A nil rules slice disables disambiguation.
func NewScorer(weights Weights, rules []Rule) *Scorer {
	return &Scorer{weights: weights, rules: rules}
}

// DefaultScorer uses DefaultWeights and DefaultRules.
func DefaultScorer() *Scorer {
	return NewScorer(DefaultWeights, DefaultRules)
}

// Score rates record r against in.
func (s *Scorer) Score(in *core.Intent, r *core.FunctionRecord) core.ScoredResult {
	return s.ScoreQuery(NewQuery(in), r)
}

// ScoreQuery rates r against a prepared query.
func (s *Scorer) ScoreQuery(q *Query, r *core.FunctionRecord) core.ScoredResult {
	res, _ := s.score(q, s.activeRules(q), r, false)
	return res
}

// Explain returns the score together with the signals that produced it.
func (s *Scorer) Explain(q *Query, r *core.FunctionRecord) (core.ScoredResult, []Contribution) {
	return s.score(q, s.activeRules(q), r, true)
}

func (s *Scorer) activeRules(q *Query) []Rule {
	active := make([]Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.When(q) {
			active = append(active, rule)
		}
	}
	return active
}

type tally struct {
	total float64
	trace []Contribution
	keep  bool
}

func (t *tally) add(signal string, v float64) {
	if v == 0 {
		return
	}
	t.total += v
	if t.keep {
		t.trace = append(t.trace, Contribution{Signal: signal, Value: v})
	}
}

func (s *Scorer) score(q *Query, rules []Rule, r *core.FunctionRecord, explain bool) (core.ScoredResult, []Contribution) {
	w := s.weights
	v := newRecordView(r)
	t := &tally{keep: explain}
	result := core.ScoredResult{Record: r}

	if s.exactName(q, v) {
		exact := math.Min(1.0, w.ExactNameBase+w.ExactNamePerPart*float64(len(v.parts)))
		t.add("exact-name", exact)
		result.Score = exact
		return result, t.trace
	}

	in := q.Intent
	raw := in.RawQuery

	// Name presence
	spaced := strings.ReplaceAll(v.snake, "_", " ")
	if len(spaced) >= minVariantLength && strings.Contains(raw, spaced) {
		t.add("name-substring", w.NameSubstring)
	}
	t.add("name-parts", s.namePartsScore(q, v))
	t.add("fuzzy-name", s.fuzzyNameScore(q, v))

	// Language hint
	if in.LanguageHint != "" {
		if in.LanguageHint == r.Language {
			t.add("language-hint", w.LanguageMatch)
		} else {
			t.add("language-hint", -w.LanguageMismatch)
		}
	}

	t.add("keywords", s.keywordScore(q, v))

	// Action
	if in.Action != "" {
		switch {
		case r.Action == in.Action:
			t.add("action", w.Action)
		case isAdjacent(in.Action, r.Action):
			t.add("action-adjacent", w.AdjacentAction)
		}
	}

	if in.DataType != "" && r.DataType == in.DataType {
		t.add("data-type", w.DataType)
	}

	t.add("order", s.orderScore(q, r))

	// Description
	t.add("description-overlap", s.descriptionOverlap(q, v))
	if raw != "" && strings.Contains(v.desc, raw) {
		t.add("description-substring", w.DescriptionSubstring)
		result.DescriptionMatch = true
	}

	for _, rule := range rules {
		t.add("rule:"+rule.Name, rule.Adjust(q, r))
	}

	result.Score = s.saturate(t.total)
	return result, t.trace
}

// saturate maps a raw additive score into [0, NonExactCeiling). Scores up
// to SaturationKnee pass through; above it they approach the ceiling
// asymptotically, so strong matches stay ordered instead of tying at a
// hard cap.
func (s *Scorer) saturate(raw float64) float64 {
	w := s.weights
	knee := math.Min(w.SaturationKnee, w.NonExactCeiling)
	switch {
	case raw <= 0:
		return 0
	case raw <= knee:
		return raw
	}
	span := w.NonExactCeiling - knee
	if span <= 0 {
		return w.NonExactCeiling
	}
	return knee + span*(1-math.Exp(-(raw-knee)/span))
}

// exactName reports whether the query literally names the record, either in
// the raw text on word boundaries or as an extracted name candidate.
// camelCase queries are covered by the no-separator form since the raw
// query is lowercased.
func (s *Scorer) exactName(q *Query, v *recordView) bool {
	if v.snake == "" {
		return false
	}
	nosep := strings.ReplaceAll(v.snake, "_", "")
	variants := []string{
		v.snake,
		nosep,
		strings.ReplaceAll(v.snake, "_", " "),
		strings.ReplaceAll(v.snake, "_", "-"),
	}
	for _, variant := range variants {
		if len(variant) >= minVariantLength && containsWord(q.Intent.RawQuery, variant) {
			return true
		}
	}
	for _, c := range q.Intent.NameCandidates {
		if c == v.snake || c == nosep {
			return true
		}
	}
	return false
}

func (s *Scorer) namePartsScore(q *Query, v *recordView) float64 {
	significant := 0
	present := 0
	for _, p := range v.parts {
		if len(p) <= 2 {
			continue
		}
		significant++
		if q.tokens[p] || q.tokenStems[stem(p)] {
			present++
		}
	}
	switch {
	case significant < 2:
		return 0
	case present == significant:
		return s.weights.NamePartsAll
	case float64(present) >= 0.7*float64(significant):
		return s.weights.NamePartsMost
	}
	return 0
}

func (s *Scorer) fuzzyNameScore(q *Query, v *recordView) float64 {
	best := 0.0
	for _, c := range q.Intent.NameCandidates {
		if sim := jaroWinkler(c, v.snake); sim > best {
			best = sim
		}
	}
	if best < s.weights.FuzzyThreshold {
		return 0
	}
	return s.weights.FuzzyName * best
}

// keywordScore is non-decreasing in the query keyword set: every term either
// adds or is ignored.
func (s *Scorer) keywordScore(q *Query, v *recordView) float64 {
	w := s.weights
	keywords := q.Intent.Keywords
	if len(keywords) == 0 {
		return 0
	}

	recordStems := make(map[string]bool, len(v.record.Keywords))
	for _, k := range v.record.Keywords {
		recordStems[stem(strings.ToLower(k))] = true
	}
	nameStems := make(map[string]bool, len(v.parts))
	for _, p := range v.parts {
		nameStems[stem(p)] = true
	}

	var common, important int
	var bonus float64
	nameMatch := false
	for i, kw := range keywords {
		st := q.keywordStems[i]
		if recordStems[st] {
			common++
			if importantKeywords[kw] {
				important++
			}
		}
		switch {
		case nameStems[st] && !containerWords[kw]:
			bonus += w.KeywordNamePart
			nameMatch = true
		case nameStems[st] || (len(kw) >= 3 && strings.Contains(v.snake, kw)):
			bonus += w.KeywordInName
			nameMatch = true
		case strings.Contains(v.desc, kw):
			bonus += w.KeywordInDescription
		}
	}

	k := bonus + float64(important)*w.ImportantKeyword
	if len(recordStems) > 0 {
		k += float64(common) / float64(len(recordStems))
	}
	if important >= 2 {
		k += w.MultipleImportant
	}

	budget := w.KeywordBudget
	if nameMatch {
		budget = w.KeywordNameBudget
	}
	return math.Min(k*budget, budget)
}

func (s *Scorer) orderScore(q *Query, r *core.FunctionRecord) float64 {
	if r.Order == core.OrderNone {
		return 0
	}
	in := q.Intent
	if in.Order != core.OrderNone {
		if in.Order == r.Order {
			return s.weights.ExplicitOrder
		}
		return 0
	}
	switch {
	case r.Order == core.OrderDescending && q.hasAny(descendingHints):
		return s.weights.ImplicitOrder
	case r.Order == core.OrderAscending && q.hasAny(ascendingHints):
		return s.weights.ImplicitOrder
	}
	return 0
}

// descriptionOverlap is the share of the description's meaningful words
// that the query mentions.
func (s *Scorer) descriptionOverlap(q *Query, v *recordView) float64 {
	words := intent.Keywords(v.desc)
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, word := range words {
		if q.keywordSet[stem(word)] {
			hits++
		}
	}
	return s.weights.DescriptionOverlap * float64(hits) / float64(len(words))
}

func (q *Query) hasAny(words map[string]bool) bool {
	for tok := range q.tokens {
		if words[tok] {
			return true
		}
	}
	return false
}

func isAdjacent(want, have string) bool {
	for _, a := range adjacentActions[want] {
		if a == have {
			return true
		}
	}
	return false
}
