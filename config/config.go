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


// Package config loads funcrec settings from defaults, an optional YAML or
// TOML file and FUNCREC_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/funcrec/ai"
)

// EnvPrefix prefixes every environment variable, e.g. FUNCREC_CACHE_TTL
// or FUNCREC_SEARCH_DEFAULT_TOP_K.
const EnvPrefix = "FUNCREC"

// Config holds all application configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog" toml:"catalog"`
	Cache   CacheConfig   `yaml:"cache" toml:"cache"`
	Search  SearchConfig  `yaml:"search" toml:"search"`
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Ingest  IngestConfig  `yaml:"ingest" toml:"ingest"`
	AI      AIConfig      `yaml:"ai" toml:"ai"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// CatalogConfig selects the storage backend.
type CatalogConfig struct {
	// Backend is badger, sqlite or memory.
	Backend string `yaml:"backend" toml:"backend" split_words:"true"`
	// Path is the database directory (badger) or file (sqlite).
	Path string `yaml:"path" toml:"path" split_words:"true"`
	// Files are catalog files or globs imported and watched by serve.
	Files []string `yaml:"files" toml:"files" split_words:"true"`
	// Seed loads the embedded starter catalog into an empty store.
	Seed bool `yaml:"seed" toml:"seed" split_words:"true"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	// Type is memory, redis or none.
	Type       string   `yaml:"type" toml:"type" split_words:"true"`
	TTL        Duration `yaml:"ttl" toml:"ttl" split_words:"true"`
	MaxEntries int      `yaml:"max_entries" toml:"max_entries" split_words:"true"`
	RedisURL   string   `yaml:"redis_url" toml:"redis_url" split_words:"true"`
	Prefix     string   `yaml:"prefix" toml:"prefix" split_words:"true"`
}

// SearchConfig holds recommendation defaults.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k" toml:"default_top_k" split_words:"true"`
	// LowConfidence is the score under which the CLI warns about a weak match.
	LowConfidence float64 `yaml:"low_confidence" toml:"low_confidence" split_words:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr" split_words:"true"`
	// RateLimit is requests per second per client. 0 disables limiting.
	RateLimit       float64  `yaml:"rate_limit" toml:"rate_limit" split_words:"true"`
	Burst           int      `yaml:"burst" toml:"burst" split_words:"true"`
	ReadTimeout     Duration `yaml:"read_timeout" toml:"read_timeout" split_words:"true"`
	WriteTimeout    Duration `yaml:"write_timeout" toml:"write_timeout" split_words:"true"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" split_words:"true"`
}

// IngestConfig holds import and enrichment settings.
type IngestConfig struct {
	Workers     int `yaml:"workers" toml:"workers" split_words:"true"`
	BatchSize   int `yaml:"batch_size" toml:"batch_size" split_words:"true"`
	MinKeywords int `yaml:"min_keywords" toml:"min_keywords" split_words:"true"`
	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts" split_words:"true"`
}

// AIConfig holds the tagging model settings.
type AIConfig struct {
	Host        string `yaml:"host" toml:"host" split_words:"true"`
	Model       string `yaml:"model" toml:"model" split_words:"true"`
	Token       string `yaml:"token" toml:"token" split_words:"true"`
	MaxKeywords int    `yaml:"max_keywords" toml:"max_keywords" split_words:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" split_words:"true"`
	Format string `yaml:"format" toml:"format" split_words:"true"`
}

// Duration is a time.Duration written as "30s" or "5m" in files and
// environment variables.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Catalog: CatalogConfig{
			Backend: "badger",
			Path:    defaultDBPath(),
			Seed:    true,
		},
		Cache: CacheConfig{
			Type:       "memory",
			TTL:        Duration(10 * time.Minute),
			MaxEntries: 10000,
			Prefix:     "funcrec:",
		},
		Search: SearchConfig{
			DefaultTopK:   5,
			LowConfidence: 0.4,
		},
		Server: ServerConfig{
			Addr:            "localhost:5000",
			RateLimit:       10,
			Burst:           20,
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Ingest: IngestConfig{
			Workers:     4,
			BatchSize:   50,
			MinKeywords: 3,
			MaxAttempts: 3,
		},
		AI: AIConfig{
			Host:        aiDefaults.Host,
			Model:       aiDefaults.Model,
			Token:       aiDefaults.Token,
			MaxKeywords: aiDefaults.MaxKeywords,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "funcrec.db"
	}
	return filepath.Join(dir, "funcrec", "catalog.db")
}

// Load builds the configuration from defaults, the file at path (if not
// empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	validBackends := map[string]bool{"badger": true, "sqlite": true, "memory": true}
	if !validBackends[c.Catalog.Backend] {
		errs = append(errs, fmt.Sprintf("invalid catalog backend: %s (must be badger, sqlite, or memory)", c.Catalog.Backend))
	}
	if c.Catalog.Backend != "memory" && strings.TrimSpace(c.Catalog.Path) == "" {
		errs = append(errs, "catalog path is required for persistent backends")
	}

	validCacheTypes := map[string]bool{"memory": true, "redis": true, "none": true}
	if !validCacheTypes[c.Cache.Type] {
		errs = append(errs, fmt.Sprintf("invalid cache type: %s (must be memory, redis, or none)", c.Cache.Type))
	}
	if c.Cache.Type == "redis" && c.Cache.RedisURL == "" {
		errs = append(errs, "cache redis_url is required for the redis cache")
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, "cache ttl must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, "cache max_entries must not be negative")
	}

	if c.Search.DefaultTopK < 1 {
		errs = append(errs, "default_top_k must be positive")
	}
	if c.Search.LowConfidence < 0 || c.Search.LowConfidence > 1 {
		errs = append(errs, "low_confidence must be between 0 and 1")
	}

	if c.Server.Addr == "" {
		errs = append(errs, "server addr is required")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.Burst < 1 {
		errs = append(errs, "burst must be positive when rate limiting")
	}

	if c.Ingest.Workers < 1 {
		errs = append(errs, "ingest workers must be positive")
	}
	if c.Ingest.BatchSize < 1 {
		errs = append(errs, "ingest batch_size must be positive")
	}
	if c.Ingest.MaxAttempts < 1 {
		errs = append(errs, "ingest max_attempts must be positive")
	}

	if err := c.AIProviderConfig().Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// AIProviderConfig converts the AI section for ai.Provider constructors.
func (c *Config) AIProviderConfig() *ai.Config {
	return &ai.Config{
		Host:        c.AI.Host,
		Model:       c.AI.Model,
		Token:       c.AI.Token,
		MaxKeywords: c.AI.MaxKeywords,
	}
}
