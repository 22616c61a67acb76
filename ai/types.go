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

package ai

import (
	"slices"
	"strings"

	"github.com/poiesic/funcrec/core"
)

// TagSuggestion is metadata proposed for one catalog record.
type TagSuggestion struct {
	Keywords []string `json:"keywords"`
	Action   string   `json:"action"`
	DataType string   `json:"data_type"`
}

// Sanitize lowercases and deduplicates keywords, keeps at most
// maxKeywords of them (no limit when <= 0), and clears an action or data
// type outside the core vocabularies.
func (s *TagSuggestion) Sanitize(maxKeywords int) {
	var keywords []string
	seen := make(map[string]bool, len(s.Keywords))
	for _, k := range s.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
	}
	if maxKeywords > 0 && len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	s.Keywords = keywords

	s.Action = strings.ToLower(strings.TrimSpace(s.Action))
	if !slices.Contains(core.Actions, s.Action) {
		s.Action = ""
	}
	s.DataType = strings.ToLower(strings.TrimSpace(s.DataType))
	if !slices.Contains(core.DataTypes, s.DataType) {
		s.DataType = ""
	}
}

// Apply merges the suggestion into a copy of r. Existing keywords keep
// their order and new ones are appended; action and data type are only
// filled when r has none. The boolean reports whether anything changed.
func (s *TagSuggestion) Apply(r *core.FunctionRecord) (*core.FunctionRecord, bool) {
	out := r.Clone()
	changed := false

	have := make(map[string]bool, len(out.Keywords))
	for _, k := range out.Keywords {
		have[strings.ToLower(k)] = true
	}
	for _, k := range s.Keywords {
		if !have[k] {
			have[k] = true
			out.Keywords = append(out.Keywords, k)
			changed = true
		}
	}
	if out.Action == "" && s.Action != "" {
		out.Action = s.Action
		changed = true
	}
	if out.DataType == "" && s.DataType != "" {
		out.DataType = s.DataType
		changed = true
	}
	return out, changed
}
