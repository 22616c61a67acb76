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


package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "badger", cfg.Catalog.Backend)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, 0.4, cfg.Search.LowConfidence)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL.Std())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoadFiles(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"yaml", "funcrec.yaml", `
catalog:
  backend: sqlite
  path: /tmp/funcrec.sqlite
  files: ["catalogs/**/*.yaml"]
cache:
  ttl: 30s
search:
  default_top_k: 3
log:
  format: json
`},
		{"toml", "funcrec.toml", `
[catalog]
backend = "sqlite"
path = "/tmp/funcrec.sqlite"
files = ["catalogs/**/*.yaml"]

[cache]
ttl = "30s"

[search]
default_top_k = 3

[log]
format = "json"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.body))
			require.NoError(t, err)
			assert.Equal(t, "sqlite", cfg.Catalog.Backend)
			assert.Equal(t, "/tmp/funcrec.sqlite", cfg.Catalog.Path)
			assert.Equal(t, []string{"catalogs/**/*.yaml"}, cfg.Catalog.Files)
			assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Std())
			assert.Equal(t, 3, cfg.Search.DefaultTopK)
			assert.Equal(t, "json", cfg.Log.Format)
			// Untouched sections keep their defaults
			assert.Equal(t, Default().Server, cfg.Server)
		})
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "funcrec.yaml", "search:\n  default_top_k: 3\n")
	t.Setenv("FUNCREC_SEARCH_DEFAULT_TOP_K", "7")
	t.Setenv("FUNCREC_CACHE_TTL", "2m")
	t.Setenv("FUNCREC_CACHE_TYPE", "none")
	t.Setenv("FUNCREC_CATALOG_FILES", "a.yaml,b.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.DefaultTopK)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL.Std())
	assert.Equal(t, "none", cfg.Cache.Type)
	assert.Equal(t, []string{"a.yaml", "b.json"}, cfg.Catalog.Files)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "funcrec.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(writeFile(t, "bad.yaml", "cache:\n  ttl: soon\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Catalog.Backend = "postgres" }, "invalid catalog backend"},
		{"path", func(c *Config) { c.Catalog.Path = "" }, "catalog path is required"},
		{"memory needs no path", func(c *Config) { c.Catalog.Backend = "memory"; c.Catalog.Path = "" }, ""},
		{"cache type", func(c *Config) { c.Cache.Type = "disk" }, "invalid cache type"},
		{"redis url", func(c *Config) { c.Cache.Type = "redis" }, "redis_url is required"},
		{"top k", func(c *Config) { c.Search.DefaultTopK = 0 }, "default_top_k must be positive"},
		{"confidence", func(c *Config) { c.Search.LowConfidence = 1.5 }, "low_confidence"},
		{"burst", func(c *Config) { c.Server.Burst = 0 }, "burst must be positive"},
		{"no limiter", func(c *Config) { c.Server.RateLimit = 0; c.Server.Burst = 0 }, ""},
		{"workers", func(c *Config) { c.Ingest.Workers = 0 }, "workers must be positive"},
		{"ai model", func(c *Config) { c.AI.Model = "" }, "model is required"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Cache.Type = "disk"
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache type")
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = NewLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = NewLogger(&buf, "info", "xml")
	assert.Error(t, err)

	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	text, err := LogConfig{Level: "info", Format: "text"}.Logger(&buf)
	require.NoError(t, err)
	assert.NotNil(t, text)
}
