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

import "github.com/poiesic/funcrec/core"

// Rule is a disambiguation adjustment applied after the base score.
// When is evaluated once per query; Adjust once per record.
type Rule struct {
	Name   string
	When   func(q *Query) bool
	Adjust func(q *Query, r *core.FunctionRecord) float64
}

// DefaultRules is evaluated in order. Rules separate near-synonymous
// catalog entries that keyword and action weighting alone cannot.
var DefaultRules = []Rule{
	{Name: "dedupe", When: wantsDedupe, Adjust: adjustDedupe},
	{Name: "sort-unique", When: wantsSortUnique, Adjust: adjustSortUnique},
	{Name: "group", When: wantsGroup, Adjust: adjustGroup},
	{Name: "flatten", When: wantsFlatten, Adjust: adjustFlatten},
	{Name: "merge", When: wantsMerge, Adjust: adjustMerge},
	{Name: "rank", When: wantsRank, Adjust: adjustRank},
	{Name: "extremum", When: wantsExtremum, Adjust: adjustExtremum},
	{Name: "letter-case", When: wantsLetterCase, Adjust: adjustLetterCase},
}

var (
	sortWords    = []string{"sort", "sorted", "sorting", "order", "ordered", "arrange"}
	uniqueWords  = []string{"unique", "distinct"}
	dupPrefixes  = []string{"dedup", "duplicate"}
	groupWords   = []string{"group", "grouping", "grouped", "categorize"}
	flattenWords = []string{"flatten", "nested", "unpack", "unnest"}
	mergeWords   = []string{"join", "combine", "concatenate", "unite"}
	rankWords    = []string{"rank", "ranked", "ranking"}
	minWords     = []string{"min", "minimum", "smallest", "lowest"}
	maxWords     = []string{"max", "maximum", "largest", "biggest", "highest"}
	reducerParts = []string{"sum", "count", "average", "mean", "total"}
	upperParts   = []string{"upper", "uppercase", "capital", "capitalize", "capitalized"}
	lowerParts   = []string{"lower", "lowercase"}
)

func isDuplicateRemoval(v *recordView) bool {
	if v.record.Action == core.ActionSort {
		return false
	}
	return v.hasPartPrefix(dupPrefixes...) || v.hasPart(uniqueWords...) ||
		v.hasKeyword("duplicates", "duplicate", "deduplicate")
}

func isGroupFamily(v *recordView) bool {
	return v.record.Action == core.ActionGroup || v.hasPart("group", "groupby")
}

func isFlattenFamily(v *recordView) bool {
	return v.hasPart("flatten", "flat")
}

// extremeOf reports "min", "max", "both" or "" from the record's name parts.
func extremeOf(v *recordView) string {
	return extreme(v.hasPart(minWords...), v.hasPart(maxWords...))
}

func queryExtreme(q *Query) string {
	return extreme(q.Mentions(minWords...), q.Mentions(maxWords...))
}

func extreme(lo, hi bool) string {
	switch {
	case lo && hi:
		return "both"
	case lo:
		return "min"
	case hi:
		return "max"
	}
	return ""
}

func letterCaseOf(v *recordView) string {
	switch {
	case v.hasPart(upperParts...):
		return "upper"
	case v.hasPart(lowerParts...):
		return "lower"
	}
	return ""
}

func wantsDedupe(q *Query) bool {
	return q.Intent.Action == core.ActionRemove && q.MentionsPrefix(dupPrefixes...)
}

func adjustDedupe(q *Query, r *core.FunctionRecord) float64 {
	v := newRecordView(r)
	switch {
	case isDuplicateRemoval(v):
		return 0.5
	case r.Action == core.ActionSort && !q.Mentions(sortWords...):
		return -0.3
	}
	return 0
}

func wantsSortUnique(q *Query) bool {
	return q.Mentions(sortWords...) && (q.Mentions(uniqueWords...) || q.MentionsPrefix(dupPrefixes...))
}

func adjustSortUnique(_ *Query, r *core.FunctionRecord) float64 {
	v := newRecordView(r)
	switch {
	case r.Action == core.ActionSort && v.hasPart(uniqueWords...):
		return 0.2
	case isDuplicateRemoval(v):
		return -0.1
	}
	return 0
}

func wantsGroup(q *Query) bool {
	return q.Intent.Action == core.ActionGroup || q.Mentions(groupWords...) ||
		(q.Mentions("organize") && q.Mentions("key"))
}

func adjustGroup(q *Query, r *core.FunctionRecord) float64 {
	v := newRecordView(r)
	switch {
	case isGroupFamily(v):
		if q.Mentions("key", "keys") {
			return 0.6
		}
		return 0.5
	case isFlattenFamily(v):
		return -0.3
	}
	return 0
}

func wantsFlatten(q *Query) bool {
	return q.Mentions(flattenWords...)
}

func adjustFlatten(q *Query, r *core.FunctionRecord) float64 {
	v := newRecordView(r)
	switch {
	case isFlattenFamily(v):
		return 0.5
	case isGroupFamily(v) && !wantsGroup(q):
		return -0.2
	}
	return 0
}

func wantsMerge(q *Query) bool {
	return q.Mentions(mergeWords...)
}

func adjustMerge(_ *Query, r *core.FunctionRecord) float64 {
	switch r.Action {
	case core.ActionMerge:
		return 0.3
	case core.ActionFilter:
		return -0.2
	}
	return 0
}

func wantsRank(q *Query) bool {
	return q.Mentions(rankWords...)
}

func adjustRank(q *Query, r *core.FunctionRecord) float64 {
	if r.Action != core.ActionSort {
		return 0
	}
	adj := 0.15
	if q.Intent.Order == core.OrderNone {
		switch r.Order {
		case core.OrderDescending:
			adj += 0.1
		case core.OrderAscending:
			adj -= 0.05
		}
	}
	return adj
}

func wantsExtremum(q *Query) bool {
	a := q.Intent.Action
	return (a == core.ActionCalculate || a == core.ActionFind) && queryExtreme(q) != ""
}

func adjustExtremum(q *Query, r *core.FunctionRecord) float64 {
	v := newRecordView(r)
	want := queryExtreme(q)
	have := extremeOf(v)

	switch {
	case have == "":
		if v.hasPart(reducerParts...) {
			return -0.3
		}
		return 0
	case want == "both" || have == "both" || have == want:
		adj := 0.4
		if r.Action == q.Intent.Action {
			adj += 0.15
		}
		return adj
	default:
		return -0.5
	}
}

func wantsLetterCase(q *Query) bool {
	return q.CaseOp() != ""
}

func adjustLetterCase(q *Query, r *core.FunctionRecord) float64 {
	v := newRecordView(r)
	switch have := letterCaseOf(v); {
	case have == q.CaseOp():
		return 0.6
	case have != "":
		return -0.3
	}
	if q.Intent.Action == core.ActionFind && (extremeOf(v) != "" || v.hasPart("count")) {
		return -0.3
	}
	return 0
}
