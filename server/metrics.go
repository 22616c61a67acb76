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



package server

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/funcrec/cache"
	"github.com/poiesic/funcrec/core"
)

const (
	// latencyWindow is how many recent requests percentiles are computed over.
	latencyWindow = 1024

	// maxRecentErrors bounds the error log kept for /api/metrics.
	maxRecentErrors = 20

	// otherEndpoint groups requests that matched no route.
	otherEndpoint = "other"

	// anyLanguage counts searches without a language filter.
	anyLanguage = "any"
)

// RequestError is one failed request kept for /api/metrics.
type RequestError struct {
	Time     time.Time `json:"time"`
	Endpoint string    `json:"endpoint"`
	Status   int       `json:"status"`
	Message  string    `json:"message"`
}

// LatencySummary holds request latency percentiles in milliseconds.
type LatencySummary struct {
	Samples int     `json:"samples"`
	P50     float64 `json:"p50_ms"`
	P95     float64 `json:"p95_ms"`
	P99     float64 `json:"p99_ms"`
}

// CacheSummary is the cache section of a metrics snapshot.
type CacheSummary struct {
	cache.Stats
	HitRate float64 `json:"hit_rate"`
}

// MetricsSnapshot is the body of GET /api/metrics.
type MetricsSnapshot struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	Requests      int64            `json:"requests_total"`
	Errors        int64            `json:"errors_total"`
	ErrorRate     float64          `json:"error_rate"`
	ByEndpoint    map[string]int64 `json:"requests_by_endpoint"`
	ByLanguage    map[string]int64 `json:"searches_by_language"`
	Latency       LatencySummary   `json:"latency"`
	RecentErrors  []RequestError   `json:"recent_errors"`
	Cache         *CacheSummary    `json:"cache"`
}

// Metrics collects in-process request statistics. It is safe for
// concurrent use.
type Metrics struct {
	mu         sync.Mutex
	started    time.Time
	now        func() time.Time
	requests   int64
	errors     int64
	byEndpoint map[string]int64
	byLanguage map[string]int64
	latencies  []float64 // ring buffer, ms
	next       int
	recent     []RequestError // ring buffer, oldest at recentNext once full
	recentNext int
}

// NewMetrics creates an empty collector. Uptime counts from now.
func NewMetrics() *Metrics {
	return newMetricsAt(time.Now)
}

func newMetricsAt(now func() time.Time) *Metrics {
	return &Metrics{
		started:    now(),
		now:        now,
		byEndpoint: make(map[string]int64),
		byLanguage: make(map[string]int64),
		latencies:  make([]float64, 0, latencyWindow),
	}
}

// RecordRequest records one finished request. Any status >= 400 counts as
// an error; msg describes it.
func (m *Metrics) RecordRequest(endpoint string, status int, elapsed time.Duration, msg string) {
	if endpoint == "" {
		endpoint = otherEndpoint
	}
	ms := float64(elapsed) / float64(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.byEndpoint[endpoint]++
	if len(m.latencies) < latencyWindow {
		m.latencies = append(m.latencies, ms)
	} else {
		m.latencies[m.next] = ms
		m.next = (m.next + 1) % latencyWindow
	}

	if status < 400 {
		return
	}
	m.errors++
	e := RequestError{Time: m.now(), Endpoint: endpoint, Status: status, Message: msg}
	if len(m.recent) < maxRecentErrors {
		m.recent = append(m.recent, e)
	} else {
		m.recent[m.recentNext] = e
		m.recentNext = (m.recentNext + 1) % maxRecentErrors
	}
}

// RecordSearch counts a search request by its language filter.
func (m *Metrics) RecordSearch(language core.Language) {
	key := string(language)
	if key == "" {
		key = anyLanguage
	}
	m.mu.Lock()
	m.byLanguage[key]++
	m.mu.Unlock()
}

// Snapshot returns the current figures. cs is included when ok.
func (m *Metrics) Snapshot(cs cache.Stats, ok bool) MetricsSnapshot {
	m.mu.Lock()
	snap := MetricsSnapshot{
		UptimeSeconds: m.now().Sub(m.started).Seconds(),
		Requests:      m.requests,
		Errors:        m.errors,
		ByEndpoint:    make(map[string]int64, len(m.byEndpoint)),
		ByLanguage:    make(map[string]int64, len(m.byLanguage)),
		RecentErrors:  make([]RequestError, 0, len(m.recent)),
	}
	for k, v := range m.byEndpoint {
		snap.ByEndpoint[k] = v
	}
	for k, v := range m.byLanguage {
		snap.ByLanguage[k] = v
	}
	// newest first
	for i := range m.recent {
		idx := (m.recentNext - 1 - i + 2*len(m.recent)) % len(m.recent)
		snap.RecentErrors = append(snap.RecentErrors, m.recent[idx])
	}
	sorted := slices.Clone(m.latencies)
	m.mu.Unlock()

	if snap.Requests > 0 {
		snap.ErrorRate = float64(snap.Errors) / float64(snap.Requests)
	}
	slices.Sort(sorted)
	snap.Latency = LatencySummary{
		Samples: len(sorted),
		P50:     percentile(sorted, 50),
		P95:     percentile(sorted, 95),
		P99:     percentile(sorted, 99),
	}
	if ok {
		summary := &CacheSummary{Stats: cs}
		if lookups := cs.Hits + cs.Misses; lookups > 0 {
			summary.HitRate = float64(cs.Hits) / float64(lookups)
		}
		snap.Cache = summary
	}
	return snap
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(len(sorted)) / 100))
	return sorted[max(rank, 1)-1]
}
