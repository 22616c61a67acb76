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

package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the catalog files that changed since the last call,
// sorted. Removed files are included.
type ChangeFunc func(ctx context.Context, paths []string) error

// Watcher reports changes to catalog files matching a set of paths or
// doublestar patterns.
type Watcher struct {
	patterns []string
	onChange ChangeFunc
	debounce time.Duration
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher) error

// WithDebounce sets the quiet period before changes are delivered.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) error {
		if d > 0 {
			w.debounce = d
		}
		return nil
	}
}

// WithWatcherLogger sets a custom logger.
// Default is slog.Default().
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWatcher creates a watcher for patterns. Each pattern is a file path
// or a doublestar glob such as "catalogs/**/*.yaml".
func NewWatcher(patterns []string, onChange ChangeFunc, opts ...WatcherOption) (*Watcher, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPaths
	}
	w := &Watcher{
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, p := range patterns {
		w.patterns = append(w.patterns, filepath.ToSlash(filepath.Clean(p)))
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Run watches until ctx is done. Change callbacks run on the calling
// goroutine; a callback error is logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, dir := range w.watchDirs() {
		if err := fsw.Add(dir); err != nil {
			return err
		}
	}
	w.logger.Info("watching catalog files", "patterns", w.patterns)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// New directories under a ** pattern need their own watch.
			if event.Has(fsnotify.Create) && w.recursive() {
				if isDir(event.Name) {
					_ = fsw.Add(event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)

			w.logger.Info("catalog files changed", "count", len(paths))
			if err := w.onChange(ctx, paths); err != nil {
				w.logger.Error("error applying catalog change", "err", err)
			}
		}
	}
}

// matches reports whether path is covered by the watcher's patterns.
func (w *Watcher) matches(path string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) recursive() bool {
	for _, p := range w.patterns {
		if strings.Contains(p, "**") {
			return true
		}
	}
	return false
}

// watchDirs lists the directories to register: each pattern's static base,
// plus every subdirectory for ** patterns.
func (w *Watcher) watchDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		d = filepath.Clean(d)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	for _, p := range w.patterns {
		if !hasMeta(p) || !doublestar.ValidatePattern(p) {
			add(filepath.Dir(filepath.FromSlash(p)))
			continue
		}
		base, rest := doublestar.SplitPattern(p)
		base = filepath.FromSlash(base)
		add(base)
		if strings.Contains(rest, "**") {
			_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
				if err == nil && d.IsDir() {
					add(path)
				}
				return nil
			})
		}
	}
	return dirs
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
