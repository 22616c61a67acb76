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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/funcrec"
	"github.com/poiesic/funcrec/config"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
		os.Exit(code)
	}
}

// env carries what every command needs once the Before hook has run.
type env struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	logger *slog.Logger
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{stdout: stdout, stderr: stderr}
	return &cli.App{
		Name:      "funcrec",
		Usage:     "Recommend code snippets from a function catalog",
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are handled by main so tests can run the app in-process.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML or TOML config file",
				EnvVars: []string{"FUNCREC_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, json)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the catalog database",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Catalog storage backend (badger, sqlite, memory)",
			},
		},
		Before: e.setup,
		Commands: []*cli.Command{
			e.recommendCommand(),
			e.explainCommand(),
			e.searchCommand(),
			e.importCommand(),
			e.statsCommand(),
			e.enrichCommand(),
			e.serveCommand(),
		},
	}
}

// setup loads the configuration, applies global flag overrides and
// installs the logger.
func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("db") {
		cfg.Catalog.Path = c.String("db")
	}
	if c.IsSet("backend") {
		cfg.Catalog.Backend = c.String("backend")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Log.Logger(e.stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	e.cfg = cfg
	e.logger = logger
	return nil
}

func (e *env) open() (*funcrec.Engine, error) {
	engine, err := funcrec.Open(e.cfg, funcrec.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return engine, nil
}
