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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/funcrec"
	"github.com/poiesic/funcrec/catalog"
	"github.com/poiesic/funcrec/server"
)

func (e *env) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the recommendation HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
			},
			&cli.Float64Flag{
				Name:  "rate-limit",
				Usage: "Requests per second per client (0 disables limiting)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-import catalog files when they change",
			},
		},
		Action: e.serve,
	}
}

func (e *env) serve(c *cli.Context) error {
	if c.IsSet("addr") {
		e.cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("rate-limit") {
		e.cfg.Server.RateLimit = c.Float64("rate-limit")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := e.open()
	if err != nil {
		return err
	}
	defer engine.Close()

	files := e.cfg.Catalog.Files
	if len(files) > 0 {
		report, err := engine.Import(ctx, nil, files...)
		if err != nil {
			return err
		}
		e.logger.Info("imported catalog files", "files", report.Files, "added", report.Added,
			"updated", report.Updated, "rejected", len(report.Rejected))
	}

	srv, err := server.New(engine, server.Config{
		Addr:            e.cfg.Server.Addr,
		DefaultTopK:     e.cfg.Search.DefaultTopK,
		RateLimit:       e.cfg.Server.RateLimit,
		Burst:           e.cfg.Server.Burst,
		ReadTimeout:     e.cfg.Server.ReadTimeout.Std(),
		WriteTimeout:    e.cfg.Server.WriteTimeout.Std(),
		ShutdownTimeout: e.cfg.Server.ShutdownTimeout.Std(),
	}, server.WithLogger(e.logger))
	if err != nil {
		return err
	}

	var watcher *catalog.Watcher
	if c.Bool("watch") {
		if len(files) == 0 {
			e.logger.Warn("--watch ignored: no catalog files configured")
		} else {
			watcher, err = catalog.NewWatcher(files, e.applyChanges(engine), catalog.WithWatcherLogger(e.logger))
			if err != nil {
				return err
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	return g.Wait()
}

// applyChanges re-imports changed files that still exist. Records from
// deleted files stay in the store until removed explicitly.
func (e *env) applyChanges(engine *funcrec.Engine) catalog.ChangeFunc {
	return func(ctx context.Context, paths []string) error {
		var present []string
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				present = append(present, p)
			}
		}
		if len(present) == 0 {
			return engine.Reload(ctx)
		}
		report, err := engine.Import(ctx, nil, present...)
		if err != nil {
			return err
		}
		e.logger.Info("catalog reloaded", "files", report.Files, "added", report.Added,
			"updated", report.Updated, "unchanged", report.Unchanged, "rejected", len(report.Rejected))
		return nil
	}
}
