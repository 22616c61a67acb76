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

import (
	"strings"

	"github.com/poiesic/funcrec/core"
)

// Normalize lowercases the query and collapses whitespace.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Canonical trims and collapses whitespace but keeps letter case, which
// name detection reads. Queries with the same canonical form always
// extract the same Intent.
func Canonical(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// Tokenize splits text into lowercase alphanumeric runs.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
}

// Keywords returns the meaningful words of text in first-seen order:
// stop words, pure numbers and words of two letters or fewer are dropped,
// except for a whitelist of short domain words such as "min" and "desc".
func Keywords(text string) []string {
	tokens := Tokenize(text)
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		if !importantShortWords[tok] && (len(tok) <= 2 || stopWords[tok] || isNumeric(tok)) {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// Extract interprets a raw query. It is pure: the same input always yields
// the same Intent, and it never fails. Unrecognized text produces an Intent
// with empty tags and whatever keywords survive filtering.
func Extract(raw string) core.Intent {
	normalized := Normalize(raw)
	tokens := Tokenize(normalized)

	in := core.Intent{
		RawQuery:       normalized,
		Action:         firstMatch(actionRules, tokens),
		DataType:       firstMatch(dataTypeRules, tokens),
		Order:          core.Order(firstMatch(orderRules, tokens)),
		Keywords:       Keywords(normalized),
		LanguageHint:   detectLanguage(normalized, tokens),
		NameCandidates: nameCandidates(strings.TrimSpace(raw), tokens),
	}

	// Letter-case operations are always about strings; "find/get uppercase"
	// is a lookup rather than a transformation.
	if anyPhrase(tokens, upperCasePhrases) || anyPhrase(tokens, lowerCasePhrases) {
		in.DataType = core.DataTypeString
		if anyPhrase(tokens, findPhrases) && (in.Action == "" || in.Action == core.ActionFilter || in.Action == core.ActionFind) {
			in.Action = core.ActionFind
		}
	}

	if in.NameCandidates == nil {
		in.NameCandidates = []string{}
	}
	return in
}

// CaseOp reports which letter case the query asks about: "upper", "lower"
// or "" when neither.
func CaseOp(in *core.Intent) string {
	tokens := Tokenize(in.RawQuery)
	switch {
	case anyPhrase(tokens, upperCasePhrases):
		return "upper"
	case anyPhrase(tokens, lowerCasePhrases):
		return "lower"
	}
	return ""
}

func detectLanguage(normalized string, tokens []string) core.Language {
	if strings.Contains(normalized, "c#") {
		return core.LanguageCSharp
	}
	if lang := firstMatch(languageRules, tokens); lang != "" {
		return core.Language(lang)
	}
	for _, rule := range contextualLanguageRules {
		for i, tok := range tokens {
			if tok != rule.phrase {
				continue
			}
			if i > 0 && languageCuesBefore[tokens[i-1]] {
				return core.Language(rule.tag)
			}
			if i+1 < len(tokens) && languageCuesAfter[tokens[i+1]] {
				return core.Language(rule.tag)
			}
		}
	}
	return ""
}

func firstMatch(rules []phraseRule, tokens []string) string {
	for _, rule := range rules {
		if containsPhrase(tokens, rule.phrase) {
			return rule.tag
		}
	}
	return ""
}

func anyPhrase(tokens []string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(tokens, p) {
			return true
		}
	}
	return false
}

// containsPhrase reports whether the words of phrase appear contiguously in tokens.
func containsPhrase(tokens []string, phrase string) bool {
	words := strings.Fields(phrase)
	if len(words) == 0 || len(words) > len(tokens) {
		return false
	}
	for i := 0; i+len(words) <= len(tokens); i++ {
		match := true
		for j, w := range words {
			if tokens[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
