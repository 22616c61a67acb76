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

package openai

import (
	"strings"
)

// scrub collapses whitespace in free text sent to the model.
func scrub(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanResponse strips markdown fences and repairs keys missing their
// opening quote, which small local models produce regularly.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return repairKeys(strings.TrimSpace(s))
}

// repairKeys turns `{keywords":` into `{"keywords":`. Only an unquoted run
// of letters and underscores directly followed by `":` after '{' or ',' is
// rewritten.
func repairKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	for i := 0; i < len(s); {
		ch := s[i]
		b.WriteByte(ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(s) && isSpace(s[i]) {
			b.WriteByte(s[i])
			i++
		}
		j := i
		for j < len(s) && (isLetter(s[j]) || s[j] == '_') {
			j++
		}
		if j > i && j+1 < len(s) && s[j] == '"' && s[j+1] == ':' {
			b.WriteByte('"')
		}
	}
	return b.String()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
