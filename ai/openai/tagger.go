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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/funcrec/ai"
	"github.com/poiesic/funcrec/core"
)

// maxAttempts bounds re-asking the model after unparseable output.
const maxAttempts = 3

// Tagger implements ai.Tagger using an OpenAI-compatible chat API.
type Tagger struct {
	client      llms.Model
	maxKeywords int
	logger      *slog.Logger
}

var _ ai.Tagger = (*Tagger)(nil)

// newTagger is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTagger(config *ai.Config) (*Tagger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return newTaggerWithModel(client, config.MaxKeywords), nil
}

func newTaggerWithModel(client llms.Model, maxKeywords int) *Tagger {
	return &Tagger{
		client:      client,
		maxKeywords: maxKeywords,
		logger:      slog.Default().With("component", "openai-tagger"),
	}
}

// NewTagger creates a tagger using the provided configuration.
//
// Returns ai.Tagger interface to enforce abstraction.
func NewTagger(config *ai.Config) (ai.Tagger, error) {
	return newTagger(config)
}

// SuggestTags asks the model for keywords, action and data type. The model
// runs in JSON mode at temperature 0; malformed output is retried.
func (t *Tagger) SuggestTags(ctx context.Context, record *core.FunctionRecord) (*ai.TagSuggestion, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt(t.maxKeywords))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildRecordPrompt(record))},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err := t.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			t.logger.Error("failed to generate content", "attempt", attempt, "id", record.ID, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			t.logger.Debug("no choices returned from model", "id", record.ID)
			return &ai.TagSuggestion{}, nil
		}

		text := cleanResponse(response.Choices[0].Content)
		var suggestion ai.TagSuggestion
		if err := json.Unmarshal([]byte(text), &suggestion); err != nil {
			lastErr = err
			t.logger.Warn("error parsing tagger response",
				"attempt", attempt,
				"response", text,
				"err", err)
			continue
		}

		suggestion.Sanitize(t.maxKeywords)
		t.logger.Debug("suggested tags", "id", record.ID, "keywords", len(suggestion.Keywords))
		return &suggestion, nil
	}

	return nil, fmt.Errorf("%w: %s: %w", ai.ErrMalformedResponse, record.ID, lastErr)
}
