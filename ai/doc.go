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

// Package ai defines the AI services funcrec uses to curate its catalog.
//
// The only service is tagging: given a catalog record, a Tagger proposes
// search keywords and the action and data type tags. Suggestions only ever
// touch metadata. Snippet code is never generated or changed.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo client for OpenAI-compatible chat APIs
//     (OpenAI, Ollama, LocalAI, vLLM)
//   - ai/mock: deterministic test doubles
//
// Public production constructors return interfaces; mock constructors
// return concrete types so tests can inspect call counts and inject
// behavior.
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	suggestion, err := provider.Tagger().SuggestTags(ctx, record)
package ai
