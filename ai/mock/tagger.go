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

package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/funcrec/ai"
	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/intent"
)

// MockTagger is a test double for ai.Tagger.
type MockTagger struct {
	// SuggestTagsFunc overrides the default behavior when set.
	SuggestTagsFunc func(ctx context.Context, record *core.FunctionRecord) (*ai.TagSuggestion, error)

	callCount atomic.Int64
}

var _ ai.Tagger = (*MockTagger)(nil)

// NewMockTagger creates a mock tagger with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockTagger() *MockTagger {
	return &MockTagger{}
}

// SuggestTags proposes the record's name parts and description keywords.
// The action and data type are echoed back unchanged.
func (m *MockTagger) SuggestTags(ctx context.Context, record *core.FunctionRecord) (*ai.TagSuggestion, error) {
	m.callCount.Add(1)

	if m.SuggestTagsFunc != nil {
		return m.SuggestTagsFunc(ctx, record)
	}

	keywords := intent.NameParts(record.Name)
	keywords = append(keywords, intent.Keywords(strings.ToLower(record.Description))...)
	s := &ai.TagSuggestion{
		Keywords: keywords,
		Action:   record.Action,
		DataType: record.DataType,
	}
	s.Sanitize(8)
	return s, nil
}

// CallCount returns the number of times SuggestTags was called.
func (m *MockTagger) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockTagger) Reset() {
	m.callCount.Store(0)
	m.SuggestTagsFunc = nil
}
