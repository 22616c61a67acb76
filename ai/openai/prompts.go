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
	"fmt"
	"strings"

	"github.com/poiesic/funcrec/core"
)

const tagResponseSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "keywords": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9]+$"}
    },
    "action": {"type": "string"},
    "data_type": {"type": "string"}
  },
  "required": ["keywords", "action", "data_type"],
  "additionalProperties": false
}`

const tagPromptTemplate = `You label code snippets for a function search engine. Given a snippet and its
description, return the words a programmer would type when looking for it.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Return at most %d keywords. Each keyword is one lowercase word without spaces.
- Prefer verbs and nouns a user would search for, including common synonyms (dedupe, unique, distinct).
- Do not repeat the programming language name as a keyword.
- action must be exactly one of: %s. Use "" if none fits.
- data_type must be exactly one of: %s. Use "" if none fits.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input:
name: remove_duplicates
language: python
description: Removes duplicate items from a list while preserving order
code: return list(dict.fromkeys(items))
Output:
{"keywords":["remove","duplicates","unique","dedupe","distinct"],"action":"filter","data_type":"list"}`

func buildSystemPrompt(maxKeywords int) string {
	return fmt.Sprintf(tagPromptTemplate,
		tagResponseSchema,
		maxKeywords,
		strings.Join(core.Actions, ", "),
		strings.Join(core.DataTypes, ", "))
}

// maxCodeChars keeps long snippets from crowding out the instructions.
const maxCodeChars = 2000

func buildRecordPrompt(r *core.FunctionRecord) string {
	code := r.Code
	if len(code) > maxCodeChars {
		code = code[:maxCodeChars]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", r.Name)
	fmt.Fprintf(&b, "language: %s\n", r.Language)
	fmt.Fprintf(&b, "description: %s\n", scrub(r.Description))
	if len(r.Keywords) > 0 {
		fmt.Fprintf(&b, "existing keywords: %s\n", strings.Join(r.Keywords, ", "))
	}
	fmt.Fprintf(&b, "code: %s", code)
	return b.String()
}
