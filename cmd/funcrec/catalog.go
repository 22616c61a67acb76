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

	"github.com/poiesic/funcrec/ai/openai"
)

func (e *env) importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import catalog files (JSON, YAML or TOML) into the store",
		ArgsUsage: "PATTERN...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of validation workers",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Do not report progress",
			},
		},
		Action: func(c *cli.Context) error {
			patterns := c.Args().Slice()
			if len(patterns) == 0 {
				patterns = e.cfg.Catalog.Files
			}
			if len(patterns) == 0 {
				return fmt.Errorf("no catalog files given")
			}
			if c.IsSet("workers") {
				e.cfg.Ingest.Workers = c.Int("workers")
			}

			engine, err := e.open()
			if err != nil {
				return err
			}
			defer engine.Close()

			progress := e.stderr
			if c.Bool("quiet") {
				progress = nil
			}
			report, err := engine.Import(c.Context, progress, patterns...)
			if report != nil {
				fmt.Fprintf(e.stdout, "Imported %d files: %d added, %d updated, %d unchanged, %d rejected\n",
					report.Files, report.Added, report.Updated, report.Unchanged, len(report.Rejected))
				for _, rej := range report.Rejected {
					fmt.Fprintf(e.stderr, "  rejected %s\n", rej.Error())
				}
			}
			return err
		},
	}
}

func (e *env) statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show catalog and cache statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print statistics as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			engine, err := e.open()
			if err != nil {
				return err
			}
			defer engine.Close()

			stats, err := engine.Stats(c.Context)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return writeJSON(e.stdout, stats)
			}
			fmt.Fprintf(e.stdout, "Backend: %s\n", e.cfg.Catalog.Backend)
			formatStats(e.stdout, stats)
			return nil
		},
	}
}

func (e *env) enrichCommand() *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Suggest keywords for sparsely tagged functions with a language model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ai-host",
				Usage: "OpenAI-compatible API host URL",
			},
			&cli.StringFlag{
				Name:  "ai-model",
				Usage: "Chat model name",
			},
			&cli.StringFlag{
				Name:    "ai-token",
				Usage:   "API key",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of records to process in each batch",
			},
			&cli.IntFlag{
				Name:  "min-keywords",
				Usage: "Skip records that already have this many keywords",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show suggested changes without writing them",
			},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("ai-host") {
				e.cfg.AI.Host = c.String("ai-host")
			}
			if c.IsSet("ai-model") {
				e.cfg.AI.Model = c.String("ai-model")
			}
			if c.IsSet("ai-token") {
				e.cfg.AI.Token = c.String("ai-token")
			}
			if c.IsSet("batch-size") {
				e.cfg.Ingest.BatchSize = c.Int("batch-size")
			}
			if c.IsSet("min-keywords") {
				e.cfg.Ingest.MinKeywords = c.Int("min-keywords")
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			provider, err := openai.NewProvider(e.cfg.AIProviderConfig())
			if err != nil {
				return fmt.Errorf("failed to create AI provider: %w", err)
			}
			defer provider.Close()

			engine, err := e.open()
			if err != nil {
				return err
			}
			defer engine.Close()

			e.logger.Info("starting enrichment", "model", e.cfg.AI.Model, "dry_run", c.Bool("dry-run"))
			report, err := engine.Enrich(c.Context, provider.Tagger(), c.Bool("dry-run"), e.stderr)
			if report == nil {
				return err
			}

			for _, ch := range report.Changes {
				fmt.Fprintf(e.stdout, "%s: [%s] -> [%s]\n", ch.ID, strings.Join(ch.Before, ", "), strings.Join(ch.After, ", "))
			}
			verb := "updated"
			if c.Bool("dry-run") {
				verb = "would update"
			}
			fmt.Fprintf(e.stdout, "Examined %d, skipped %d, tagged %d, %s %d, failed %d\n",
				report.Examined, report.Skipped, report.Tagged, verb, len(report.Changes), report.Failed)
			if report.Resumed {
				fmt.Fprintln(e.stdout, "Resumed from a previous run")
			}
			return err
		},
	}
}
