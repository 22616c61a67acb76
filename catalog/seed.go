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
	_ "embed"

	"github.com/poiesic/funcrec/core"
)

//go:embed seed.yaml
var seedYAML []byte

// Seed returns a fresh copy of the embedded starter catalog.
func Seed() ([]*core.FunctionRecord, error) {
	return Decode(seedYAML, FormatYAML)
}

// SeedBytes returns the raw embedded seed file.
func SeedBytes() []byte {
	out := make([]byte, len(seedYAML))
	copy(out, seedYAML)
	return out
}
