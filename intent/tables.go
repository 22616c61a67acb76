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

package intent

import "github.com/poiesic/funcrec/core"

// phraseRule maps a phrase (one or more words) to a tag.
type phraseRule struct {
	phrase string
	tag    string
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "should": true, "could": true, "may": true, "might": true,
	"must": true, "can": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true, "they": true,
	"what": true, "which": true, "who": true, "when": true, "where": true, "why": true,
	"how": true, "all": true, "each": true, "every": true, "both": true, "few": true,
	"more": true, "most": true, "other": true, "some": true, "such": true, "no": true,
	"nor": true, "not": true, "only": true, "own": true, "same": true, "so": true,
	"than": true, "too": true, "very": true, "just": true, "now": true, "then": true,
	"here": true, "there": true,
}

// importantShortWords survive the length filter.
var importantShortWords = map[string]bool{
	"min": true, "max": true, "asc": true, "desc": true, "csv": true, "str": true,
	"id": true,
}

// actionRules is evaluated top to bottom; the first matching phrase wins.
// Specific phrases sit above generic ones so that "deduplicate" beats "sort"
// and "group" beats "transform".
var actionRules = []phraseRule{
	{"deduplicate", core.ActionRemove},
	{"dedupe", core.ActionRemove},
	{"dedup", core.ActionRemove},
	{"remove duplicates", core.ActionRemove},
	{"remove duplicate", core.ActionRemove},
	{"delete duplicates", core.ActionRemove},
	{"drop duplicates", core.ActionRemove},
	{"eliminate duplicates", core.ActionRemove},
	{"get rid of duplicates", core.ActionRemove},

	{"group by", core.ActionGroup},
	{"group", core.ActionGroup},
	{"grouping", core.ActionGroup},
	{"categorize", core.ActionGroup},
	{"organize by", core.ActionGroup},

	{"parse", core.ActionParse},
	{"decode", core.ActionParse},
	{"tokenize", core.ActionParse},

	{"validate", core.ActionValidate},
	{"validation", core.ActionValidate},
	{"verify", core.ActionValidate},
	{"check", core.ActionValidate},

	{"format", core.ActionFormat},
	{"formatting", core.ActionFormat},
	{"pad", core.ActionFormat},

	{"sort", core.ActionSort},
	{"sorted", core.ActionSort},
	{"sorting", core.ActionSort},
	{"order", core.ActionSort},
	{"arrange", core.ActionSort},
	{"rank", core.ActionSort},
	{"ranked", core.ActionSort},
	{"ranking", core.ActionSort},

	{"merge", core.ActionMerge},
	{"combine", core.ActionMerge},
	{"join", core.ActionMerge},
	{"concatenate", core.ActionMerge},
	{"concat", core.ActionMerge},
	{"unite", core.ActionMerge},

	{"filter", core.ActionFilter},
	{"select", core.ActionFilter},
	{"extract", core.ActionFilter},
	{"exclude", core.ActionFilter},

	{"remove", core.ActionRemove},
	{"delete", core.ActionRemove},
	{"eliminate", core.ActionRemove},
	{"drop", core.ActionRemove},
	{"strip", core.ActionRemove},
	{"trim", core.ActionRemove},

	{"convert", core.ActionTransform},
	{"transform", core.ActionTransform},
	{"change", core.ActionTransform},
	{"modify", core.ActionTransform},
	{"capitalize", core.ActionTransform},
	{"flatten", core.ActionTransform},

	{"calculate", core.ActionCalculate},
	{"compute", core.ActionCalculate},
	{"sum", core.ActionCalculate},
	{"count", core.ActionCalculate},
	{"average", core.ActionCalculate},
	{"mean", core.ActionCalculate},
	{"total", core.ActionCalculate},
	{"determine", core.ActionCalculate},

	{"find", core.ActionFind},
	{"search", core.ActionFind},
	{"locate", core.ActionFind},
	{"lookup", core.ActionFind},
	{"look up", core.ActionFind},

	{"reverse", core.ActionReverse},
	{"flip", core.ActionReverse},
	{"invert", core.ActionReverse},

	{"unique", core.ActionUnique},
	{"distinct", core.ActionUnique},
}

var dataTypeRules = []phraseRule{
	{"list", core.DataTypeList},
	{"lists", core.DataTypeList},
	{"array", core.DataTypeList},
	{"arrays", core.DataTypeList},
	{"sequence", core.DataTypeList},
	{"collection", core.DataTypeList},

	{"dictionary", core.DataTypeDict},
	{"dictionaries", core.DataTypeDict},
	{"dict", core.DataTypeDict},
	{"dicts", core.DataTypeDict},
	{"map", core.DataTypeDict},
	{"maps", core.DataTypeDict},
	{"hashmap", core.DataTypeDict},
	{"object", core.DataTypeDict},
	{"objects", core.DataTypeDict},
	{"key value", core.DataTypeDict},

	{"string", core.DataTypeString},
	{"strings", core.DataTypeString},
	{"text", core.DataTypeString},
	{"str", core.DataTypeString},
	{"words", core.DataTypeString},
	{"sentence", core.DataTypeString},

	{"number", core.DataTypeNumber},
	{"numbers", core.DataTypeNumber},
	{"num", core.DataTypeNumber},
	{"integer", core.DataTypeNumber},
	{"integers", core.DataTypeNumber},
	{"int", core.DataTypeNumber},
	{"float", core.DataTypeNumber},

	{"tuple", core.DataTypeTuple},
	{"tuples", core.DataTypeTuple},
	{"pair", core.DataTypeTuple},
	{"pairs", core.DataTypeTuple},

	{"set", core.DataTypeSet},
	{"sets", core.DataTypeSet},
}

var orderRules = []phraseRule{
	{"ascending", string(core.OrderAscending)},
	{"asc", string(core.OrderAscending)},
	{"increasing", string(core.OrderAscending)},
	{"low to high", string(core.OrderAscending)},
	{"lowest to highest", string(core.OrderAscending)},
	{"small to large", string(core.OrderAscending)},
	{"smallest to largest", string(core.OrderAscending)},

	{"descending", string(core.OrderDescending)},
	{"desc", string(core.OrderDescending)},
	{"decreasing", string(core.OrderDescending)},
	{"high to low", string(core.OrderDescending)},
	{"highest to lowest", string(core.OrderDescending)},
	{"large to small", string(core.OrderDescending)},
	{"largest to smallest", string(core.OrderDescending)},
}

// languageRules lists aliases per language; "c#" is matched on the raw text
// because tokenization drops '#'.
var languageRules = []phraseRule{
	{"python", string(core.LanguagePython)},
	{"py", string(core.LanguagePython)},
	{"javascript", string(core.LanguageJavaScript)},
	{"js", string(core.LanguageJavaScript)},
	{"ecmascript", string(core.LanguageJavaScript)},
	{"nodejs", string(core.LanguageJavaScript)},
	{"java", string(core.LanguageJava)},
	{"csharp", string(core.LanguageCSharp)},
	{"c sharp", string(core.LanguageCSharp)},
	{"dotnet", string(core.LanguageCSharp)},
	{"golang", string(core.LanguageGo)},
	{"rust", string(core.LanguageRust)},
	{"rustlang", string(core.LanguageRust)},
}

// contextualLanguageRules are aliases that are also everyday words ("go
// through a list"). They count only next to a language cue: "in go",
// "go code".
var contextualLanguageRules = []phraseRule{
	{"go", string(core.LanguageGo)},
}

var (
	languageCuesBefore = map[string]bool{"in": true, "using": true, "with": true, "written": true}
	languageCuesAfter  = map[string]bool{
		"code": true, "function": true, "func": true, "snippet": true, "version": true,
		"language": true, "lang": true, "program": true, "implementation": true,
	}
)

// Letter-case phrases. Any of them forces the string data type.
var (
	upperCasePhrases = []string{"uppercase", "upper case", "upper", "capital", "capitals", "capitalize", "capitalized"}
	lowerCasePhrases = []string{"lowercase", "lower case", "lower"}
	findPhrases      = []string{"find", "search", "locate", "get"}
)

// nameFillerWords are dropped when deriving name candidates.
var nameFillerWords = map[string]bool{
	"function": true, "functions": true, "func": true, "method": true,
	"the": true, "a": true, "an": true, "code": true, "snippet": true, "for": true,
}
