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
	"regexp"
	"strings"
	"unicode"
)

var (
	camelCaseRe  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	separatorsRe = regexp.MustCompile(`[-\s_]+`)
)

const minCandidateLen = 3

// ToSnake normalizes an identifier in camelCase, kebab-case or snake_case
// to lower snake_case. "sortUniqueDesc" and "sort-unique-desc" both become
// "sort_unique_desc".
func ToSnake(name string) string {
	s := camelCaseRe.ReplaceAllString(strings.TrimSpace(name), "${1}_${2}")
	s = strings.ToLower(s)
	s = separatorsRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// NameParts splits an identifier into its lowercase words.
func NameParts(name string) []string {
	snake := ToSnake(name)
	if snake == "" {
		return nil
	}
	return strings.Split(snake, "_")
}

func hasCamelCase(s string) bool {
	for i := 1; i < len(s); i++ {
		if unicode.IsLower(rune(s[i-1])) && unicode.IsUpper(rune(s[i])) {
			return true
		}
	}
	return false
}

func isIdentifierLike(s string) bool {
	return strings.ContainsAny(s, "_-") || hasCamelCase(s)
}

// nameCandidates derives plausible function names from the query:
// identifier-looking words, the filler-stripped query joined with and
// without underscores, and adjacent word pairs.
func nameCandidates(raw string, tokens []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(c string) {
		if len(c) < minCandidateLen || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}

	for _, field := range strings.Fields(raw) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-'
		})
		if isIdentifierLike(word) {
			add(ToSnake(word))
		}
	}

	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !nameFillerWords[tok] {
			words = append(words, tok)
		}
	}
	if len(words) > 0 {
		add(strings.Join(words, "_"))
		add(strings.Join(words, ""))
	}

	for i := 1; i < len(words); i++ {
		a, b := words[i-1], words[i]
		if len(a) >= 3 && len(b) >= 3 && isAlpha(a) && isAlpha(b) {
			add(a + "_" + b)
		}
	}

	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return s != ""
}
