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
	"strings"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/intent"
)

// Query is an Intent plus the lookups every record comparison needs.
// It is built once per ranking call and is read-only afterwards.
type Query struct {
	Intent *core.Intent

	tokens       map[string]bool
	tokenStems   map[string]bool
	keywordStems []string
	keywordSet   map[string]bool
	caseOp       string
}

// NewQuery prepares in for scoring.
func NewQuery(in *core.Intent) *Query {
	q := &Query{
		Intent:       in,
		tokens:       make(map[string]bool),
		tokenStems:   make(map[string]bool),
		keywordStems: make([]string, len(in.Keywords)),
		keywordSet:   make(map[string]bool, len(in.Keywords)),
		caseOp:       intent.CaseOp(in),
	}
	for _, tok := range intent.Tokenize(in.RawQuery) {
		q.tokens[tok] = true
		q.tokenStems[stem(tok)] = true
	}
	for i, kw := range in.Keywords {
		q.keywordStems[i] = stem(kw)
		q.keywordSet[q.keywordStems[i]] = true
	}
	return q
}

// Mentions reports whether any of words occurs as a token of the raw query.
func (q *Query) Mentions(words ...string) bool {
	for _, w := range words {
		if q.tokens[w] {
			return true
		}
	}
	return false
}

// MentionsPrefix reports whether a query token starts with any of prefixes.
func (q *Query) MentionsPrefix(prefixes ...string) bool {
	for tok := range q.tokens {
		for _, p := range prefixes {
			if strings.HasPrefix(tok, p) {
				return true
			}
		}
	}
	return false
}

// CaseOp is "upper", "lower" or "".
func (q *Query) CaseOp() string {
	return q.caseOp
}

// recordView caches the derived forms of one record's name.
type recordView struct {
	record *core.FunctionRecord
	snake  string
	parts  []string
	desc   string
}

func newRecordView(r *core.FunctionRecord) *recordView {
	return &recordView{
		record: r,
		snake:  intent.ToSnake(r.Name),
		parts:  intent.NameParts(r.Name),
		desc:   strings.ToLower(r.Description),
	}
}

func (v *recordView) hasPart(words ...string) bool {
	for _, p := range v.parts {
		for _, w := range words {
			if p == w {
				return true
			}
		}
	}
	return false
}

func (v *recordView) hasPartPrefix(prefixes ...string) bool {
	for _, p := range v.parts {
		for _, pre := range prefixes {
			if strings.HasPrefix(p, pre) {
				return true
			}
		}
	}
	return false
}

func (v *recordView) hasKeyword(words ...string) bool {
	for _, k := range v.record.Keywords {
		for _, w := range words {
			if strings.EqualFold(k, w) {
				return true
			}
		}
	}
	return false
}
