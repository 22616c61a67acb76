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

package core

import "errors"

// Caller-facing error kinds
var (
	// ErrInvalidArgument indicates a caller contract violation such as
	// a non-positive top_k or an unrecognized language.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCatalogUnavailable indicates the catalog could not be read.
	// It is distinct from an empty result: callers may retry.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Domain validation errors
var (
	// ErrInvalidRecord indicates a FunctionRecord failed validation.
	ErrInvalidRecord = errors.New("invalid function record")

	// ErrUnknownLanguage indicates a language outside the supported set.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyName indicates the Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyCode indicates the Code field is empty.
	ErrEmptyCode = errors.New("code cannot be empty")

	// ErrInvalidPopularity indicates Popularity is outside [1,10].
	ErrInvalidPopularity = errors.New("popularity must be between 1 and 10")

	// ErrInvalidOrder indicates an Order value other than ascending or descending.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInvalidTopK indicates a non-positive result count.
	ErrInvalidTopK = errors.New("top_k must be positive")
)
