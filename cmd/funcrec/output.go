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


package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/search"
)

const rule = "============================================================"

// jsonResult flattens a record and its score for --json output.
type jsonResult struct {
	*core.FunctionRecord
	RelevanceScore float64 `json:"relevance_score"`
}

func toJSON(results []core.ScoredResult) []jsonResult {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{FunctionRecord: r.Record, RelevanceScore: r.Score}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatRecommendation renders one result: a name banner, the code, then
// description, usage and a metadata line.
func formatRecommendation(w io.Writer, r core.ScoredResult) {
	rec := r.Record
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Function: %s (%s)\n", rec.Name, rec.Language)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rec.Code)
	fmt.Fprintln(w)

	if rec.Description != "" {
		fmt.Fprintf(w, "Description: %s\n\n", rec.Description)
	}
	if rec.Usage != "" {
		fmt.Fprintln(w, "Usage Example:")
		fmt.Fprintln(w, rec.Usage)
		fmt.Fprintln(w)
	}

	var meta []string
	if rec.Complexity != "" {
		meta = append(meta, "Complexity: "+rec.Complexity)
	}
	meta = append(meta, fmt.Sprintf("Relevance: %.2f%%", r.Score*100))
	if rec.Popularity > 0 {
		meta = append(meta, fmt.Sprintf("Popularity: %d/10", rec.Popularity))
	}
	fmt.Fprintln(w, strings.Join(meta, " | "))
}

func formatResults(w io.Writer, results []core.ScoredResult) {
	if len(results) == 1 {
		formatRecommendation(w, results[0])
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "\n%s\nRECOMMENDATION %d of %d\n%s\n\n", rule, i+1, len(results), rule)
		formatRecommendation(w, r)
	}
}

func formatCodeOnly(w io.Writer, results []core.ScoredResult) {
	if len(results) == 1 {
		fmt.Fprintln(w, results[0].Record.Code)
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "# Option %d\n%s\n\n", i+1, r.Record.Code)
	}
}

func formatStats(w io.Writer, stats core.CatalogStats) {
	fmt.Fprintf(w, "Total functions: %d\n", stats.Total)
	langs := make([]string, 0, len(stats.ByLanguage))
	for lang := range stats.ByLanguage {
		langs = append(langs, string(lang))
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Fprintf(w, "  %-12s %d\n", lang, stats.ByLanguage[core.Language(lang)])
	}
}

// explainMonitor prints each stage of a recommendation.
type explainMonitor struct {
	w      io.Writer
	traces map[string][]search.Contribution
	seen   int
}

var _ search.Monitor = (*explainMonitor)(nil)

func newExplainMonitor(w io.Writer) *explainMonitor {
	return &explainMonitor{w: w, traces: make(map[string][]search.Contribution)}
}

func (m *explainMonitor) Start(query string, topK int, language core.Language) {
	lang := string(language)
	if lang == "" {
		lang = "any"
	}
	fmt.Fprintf(m.w, "Query:    %q\nTop K:    %d\nLanguage: %s\n", query, topK, lang)
}

func (m *explainMonitor) AfterCatalogFetch(records []*core.FunctionRecord) {
	fmt.Fprintf(m.w, "\nCandidates: %d\n", len(records))
}

func (m *explainMonitor) AfterIntentExtraction(in *core.Intent) {
	fmt.Fprintln(m.w, "\nIntent:")
	fmt.Fprintf(m.w, "  action:     %s\n", orDash(in.Action))
	fmt.Fprintf(m.w, "  data type:  %s\n", orDash(in.DataType))
	fmt.Fprintf(m.w, "  order:      %s\n", orDash(string(in.Order)))
	fmt.Fprintf(m.w, "  language:   %s\n", orDash(string(in.LanguageHint)))
	fmt.Fprintf(m.w, "  keywords:   %s\n", orDash(strings.Join(in.Keywords, ", ")))
	fmt.Fprintf(m.w, "  names:      %s\n", orDash(strings.Join(in.NameCandidates, ", ")))
}

func (m *explainMonitor) RulesActivated(names []string) {
	fmt.Fprintf(m.w, "  rules:      %s\n", orDash(strings.Join(names, ", ")))
}

func (m *explainMonitor) Scored(result core.ScoredResult, contributions []search.Contribution) {
	m.seen++
	m.traces[result.Record.ID] = contributions
}

func (m *explainMonitor) Finish(results []core.ScoredResult) {
	fmt.Fprintf(m.w, "\nScored %d records, top %d:\n", m.seen, len(results))
	for i, r := range results {
		fmt.Fprintf(m.w, "\n%d. %s [%s] score=%.4f popularity=%d\n",
			i+1, r.Record.Name, r.Record.Language, r.Score, r.Record.Popularity)
		for _, c := range m.traces[r.Record.ID] {
			fmt.Fprintf(m.w, "     %-20s %+.4f\n", c.Signal, c.Value)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
