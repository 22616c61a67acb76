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
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/funcrec/core"
)

func languageFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "lang",
		Usage: "Only consider functions in this language (python, javascript, java, go, rust)",
	}
}

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", fmt.Errorf("%w: a query is required", core.ErrInvalidArgument)
	}
	return query, nil
}

func (e *env) recommendCommand() *cli.Command {
	return &cli.Command{
		Name:      "recommend",
		Aliases:   []string{"rec"},
		Usage:     "Recommend functions for a natural language query",
		ArgsUsage: "QUERY...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"n"},
				Usage:   "Number of recommendations to show",
				Value:   1,
			},
			languageFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
			&cli.BoolFlag{
				Name:  "code-only",
				Usage: "Print only the code of each result",
			},
			&cli.Float64Flag{
				Name:  "min-relevance",
				Usage: "Drop results scoring below this value",
			},
		},
		Action: e.recommend,
	}
}

func (e *env) recommend(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	lang, err := core.ParseLanguage(c.String("lang"))
	if err != nil {
		return err
	}

	engine, err := e.open()
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Recommend(c.Context, query, c.Int("top"), lang)
	if err != nil {
		return err
	}

	minRelevance := c.Float64("min-relevance")
	var kept []core.ScoredResult
	for _, r := range results {
		if r.Score > 0 && r.Score >= minRelevance {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		fmt.Fprintln(e.stderr, "No matching function found. Try rephrasing your query.")
		return cli.Exit("", 1)
	}

	switch {
	case c.Bool("json"):
		out := toJSON(kept)
		if c.Int("top") == 1 {
			return writeJSON(e.stdout, out[0])
		}
		return writeJSON(e.stdout, out)
	case c.Bool("code-only"):
		formatCodeOnly(e.stdout, kept)
	default:
		formatResults(e.stdout, kept)
		if kept[0].Score < e.cfg.Search.LowConfidence {
			fmt.Fprintf(e.stderr, "\nWarning: low relevance match (%.2f%%). Consider rephrasing your query.\n", kept[0].Score*100)
		}
	}
	return nil
}

func (e *env) explainCommand() *cli.Command {
	return &cli.Command{
		Name:      "explain",
		Usage:     "Show how a query is interpreted and scored",
		ArgsUsage: "QUERY...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"n"},
				Usage:   "Number of results to break down",
				Value:   5,
			},
			languageFlag(),
		},
		Action: func(c *cli.Context) error {
			query, err := queryArg(c)
			if err != nil {
				return err
			}
			lang, err := core.ParseLanguage(c.String("lang"))
			if err != nil {
				return err
			}

			engine, err := e.open()
			if err != nil {
				return err
			}
			defer engine.Close()

			_, err = engine.RecommendWithMonitor(c.Context, query, c.Int("top"), lang, newExplainMonitor(e.stdout))
			return err
		},
	}
}

func (e *env) searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find functions whose name, description or keywords contain a term",
		ArgsUsage: "TERM",
		Flags: []cli.Flag{
			languageFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of matches",
				Value: 20,
			},
		},
		Action: func(c *cli.Context) error {
			term, err := queryArg(c)
			if err != nil {
				return err
			}
			lang, err := core.ParseLanguage(c.String("lang"))
			if err != nil {
				return err
			}

			engine, err := e.open()
			if err != nil {
				return err
			}
			defer engine.Close()

			records, err := engine.Search(c.Context, term, lang, c.Int("limit"))
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(e.stdout, "No functions match %q\n", term)
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(e.stdout, "%-32s %-11s %s\n", r.Name, r.Language, r.Description)
			}
			return nil
		},
	}
}
