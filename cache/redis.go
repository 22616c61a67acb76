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

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/poiesic/funcrec/core"
)

// DefaultRedisPrefix namespaces cache keys in a shared Redis.
const DefaultRedisPrefix = "funcrec:cache:"

const (
	redisConnectTimeout = 5 * time.Second
	redisStatsTimeout   = time.Second
	redisScanBatch      = 500
)

// RedisCache stores results as JSON strings with a native Redis TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ Cache = (*RedisCache)(nil)

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache) error

// WithRedisPrefix sets the key namespace.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisCache) error {
		if prefix == "" {
			return errors.New("redis prefix cannot be empty")
		}
		c.prefix = prefix
		return nil
	}
}

// WithRedisTTL sets the default time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) error {
		if ttl <= 0 {
			return errors.New("ttl must be positive")
		}
		c.ttl = ttl
		return nil
	}
}

// NewRedisCache connects to url (redis://host:port/db) and verifies the
// connection.
func NewRedisCache(url string, opts ...RedisOption) (*RedisCache, error) {
	if url == "" {
		return nil, ErrRedisURLRequired
	}
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	c := &RedisCache{
		client: client,
		prefix: DefaultRedisPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			client.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *RedisCache) key(k Key) string {
	return c.prefix + k.Digest()
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]core.ScoredResult, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	var entry redisEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry: %w", err)
	}
	// Digest collisions are possible in principle; the stored key settles it.
	if entry.Key != key.String() {
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return cloneResults(entry.Results), true, nil
}

func (c *RedisCache) Put(ctx context.Context, key Key, results []core.ScoredResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(redisEntry{Key: key.String(), Results: cloneResults(results)})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear deletes every key under the cache prefix using SCAN so large
// keyspaces are not blocked.
func (c *RedisCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", redisScanBatch).Result()
		if err != nil {
			return fmt.Errorf("scanning cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("deleting cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *RedisCache) Stats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), redisStatsTimeout)
	defer cancel()

	entries := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		entries++
	}

	return Stats{
		Backend: "redis",
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type redisEntry struct {
	Key     string              `json:"key"`
	Results []core.ScoredResult `json:"results"`
}
