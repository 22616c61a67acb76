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

// Weights holds the scorer's tunable constants.
type Weights struct {
	// Exact name match: ExactNameBase + ExactNamePerPart per name part, capped at 1.0.
	ExactNameBase    float64
	ExactNamePerPart float64
	// Non-exact scores lie in [0, NonExactCeiling). Above SaturationKnee
	// they are compressed rather than clipped.
	NonExactCeiling float64
	SaturationKnee  float64

	NameSubstring float64
	NamePartsAll  float64
	NamePartsMost float64

	FuzzyName      float64
	FuzzyThreshold float64

	LanguageMatch    float64
	LanguageMismatch float64

	KeywordNamePart      float64
	KeywordInName        float64
	KeywordInDescription float64
	ImportantKeyword     float64
	MultipleImportant    float64
	KeywordNameBudget    float64
	KeywordBudget        float64

	Action         float64
	AdjacentAction float64
	DataType       float64
	ExplicitOrder  float64
	ImplicitOrder  float64

	DescriptionOverlap   float64
	DescriptionSubstring float64
}

// DefaultWeights are the production constants.
var DefaultWeights = Weights{
	ExactNameBase:    0.95,
	ExactNamePerPart: 0.01,
	NonExactCeiling:  0.94,
	SaturationKnee:   0.8,

	NameSubstring: 0.6,
	NamePartsAll:  0.5,
	NamePartsMost: 0.3,

	FuzzyName:      0.3,
	FuzzyThreshold: 0.9,

	LanguageMatch:    0.4,
	LanguageMismatch: 0.6,

	KeywordNamePart:      0.8,
	KeywordInName:        0.5,
	KeywordInDescription: 0.25,
	ImportantKeyword:     0.3,
	MultipleImportant:    0.25,
	KeywordNameBudget:    0.7,
	KeywordBudget:        0.5,

	Action:         0.25,
	AdjacentAction: 0.12,
	DataType:       0.15,
	ExplicitOrder:  0.2,
	ImplicitOrder:  0.18,

	DescriptionOverlap:   0.08,
	DescriptionSubstring: 0.05,
}

// adjacentActions lists actions that partially satisfy each other.
var adjacentActions = map[string][]string{
	core.ActionCalculate: {core.ActionFind, core.ActionSearch},
	core.ActionFind:      {core.ActionCalculate, core.ActionSearch},
	core.ActionSearch:    {core.ActionFind, core.ActionCalculate},
	core.ActionTransform: {core.ActionConvert, core.ActionGroup},
	core.ActionConvert:   {core.ActionTransform},
	core.ActionFilter:    {"select", "extract", core.ActionRemove},
	core.ActionRemove:    {core.ActionFilter, core.ActionUnique, core.ActionClean},
	core.ActionUnique:    {core.ActionRemove, core.ActionFilter},
	core.ActionGroup:     {core.ActionTransform},
	core.ActionSort:      {"rank", "order"},
}

// importantKeywords carry extra weight when shared by query and record.
var importantKeywords = map[string]bool{
	"minimum": true, "maximum": true, "min": true, "max": true, "smallest": true,
	"largest": true, "lowest": true, "highest": true, "duplicate": true,
	"duplicates": true, "unique": true, "reverse": true, "merge": true, "sort": true,
	"filter": true, "sum": true, "count": true, "average": true, "total": true,
	"mean": true, "flatten": true, "group": true, "parse": true, "validate": true,
	"format": true, "email": true, "csv": true, "join": true, "deduplicate": true,
	"uppercase": true, "lowercase": true, "upper": true, "lower": true,
	"capitalize": true, "case": true, "first": true, "slice": true, "chunk": true,
	"split": true, "find": true, "search": true, "calculate": true, "string": true,
}

// containerWords name a data structure rather than an operation. They
// only earn the weaker in-name bonus when they appear in a function name.
var containerWords = map[string]bool{
	"list": true, "lists": true, "array": true, "arrays": true, "string": true,
	"strings": true, "dict": true, "dictionary": true, "map": true, "number": true,
	"numbers": true, "set": true, "tuple": true, "items": true,
}

// Implicit order hints, used only when the query states no explicit order.
var (
	descendingHints = map[string]bool{
		"high": true, "higher": true, "highest": true, "large": true, "larger": true,
		"largest": true, "big": true, "bigger": true, "biggest": true, "rank": true,
		"ranked": true, "ranking": true, "top": true,
	}
	ascendingHints = map[string]bool{
		"low": true, "lowest": true, "small": true, "smaller": true, "smallest": true,
	}
)
