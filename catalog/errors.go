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

import "errors"

var (
	// ErrSourceRequired is returned when an Accessor is created without a source.
	ErrSourceRequired = errors.New("catalog source required")

	// ErrUnsupportedFormat is returned for files that are not JSON, YAML or TOML.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")

	// ErrMalformedFile is returned when a catalog file cannot be decoded.
	ErrMalformedFile = errors.New("malformed catalog file")

	// ErrNoPaths is returned when a Watcher is given nothing to watch.
	ErrNoPaths = errors.New("no paths to watch")
)
