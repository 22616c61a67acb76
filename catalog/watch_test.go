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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcherRequiresPaths(t *testing.T) {
	_, err := NewWatcher(nil, func(context.Context, []string) error { return nil })
	assert.ErrorIs(t, err, ErrNoPaths)
}

func TestWatcherMatches(t *testing.T) {
	w, err := NewWatcher([]string{"catalogs/**/*.yaml", "extra/funcs.json"}, nil)
	require.NoError(t, err)

	assert.True(t, w.matches("catalogs/a.yaml"))
	assert.True(t, w.matches("catalogs/nested/deep/b.yaml"))
	assert.True(t, w.matches("extra/funcs.json"))
	assert.False(t, w.matches("catalogs/a.json"))
	assert.False(t, w.matches("extra/other.json"))
}

type changeRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (c *changeRecorder) record(_ context.Context, paths []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, paths)
	return nil
}

func (c *changeRecorder) seen(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		for _, p := range call {
			if p == path {
				return true
			}
		}
	}
	return false
}

func TestWatcherDeliversChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "funcs.yaml")
	ignored := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("functions: []\n"), 0o644))

	rec := &changeRecorder{}
	w, err := NewWatcher([]string{filepath.Join(dir, "*.yaml")}, rec.record, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Writes before the watch is registered are missed, so keep writing.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(ignored, []byte("x"), 0o644)
		_ = os.WriteFile(target, []byte("functions: []\n"), 0o644)
		return rec.seen(target)
	}, 5*time.Second, 50*time.Millisecond)

	assert.False(t, rec.seen(ignored))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing", "a.yaml")}, nil)
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}
