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

import "github.com/poiesic/funcrec/core"

// Monitor observes the stages of a recommendation.
type Monitor interface {
	Start(query string, topK int, language core.Language)
	AfterIntentExtraction(in *core.Intent)
	AfterCatalogFetch(records []*core.FunctionRecord)
	RulesActivated(names []string)
	Scored(result core.ScoredResult, contributions []Contribution)
	Finish(results []core.ScoredResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int, _ core.Language)       {}
func (n *noopMonitor) AfterIntentExtraction(_ *core.Intent)         {}
func (n *noopMonitor) AfterCatalogFetch(_ []*core.FunctionRecord)   {}
func (n *noopMonitor) RulesActivated(_ []string)                    {}
func (n *noopMonitor) Scored(_ core.ScoredResult, _ []Contribution) {}
func (n *noopMonitor) Finish(_ []core.ScoredResult)                 {}
