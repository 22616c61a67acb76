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

// Package cache memoizes recommendation results keyed on the normalized
// query, the requested result count and the language filter.
//
// Two implementations are provided: an in-process TTL map (MemoryCache)
// and a shared Redis-backed cache (RedisCache). Both expire entries
// lazily on read so a stale result is never served.
package cache
