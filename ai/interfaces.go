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
	"context"

	"github.com/poiesic/funcrec/core"
)

// Tagger proposes catalog metadata for a record.
// Implementations must be safe for concurrent use.
type Tagger interface {
	// SuggestTags returns keywords, action and data type for record.
	// The suggestion is raw model output; call Sanitize before applying it.
	SuggestTags(ctx context.Context, record *core.FunctionRecord) (*TagSuggestion, error)
}

// Provider owns the AI services built from one Config.
type Provider interface {
	// Tagger returns the tagging service.
	Tagger() Tagger

	// Close releases resources held by the provider.
	Close() error
}
