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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/funcrec/core"
)

// DefaultPopularity is assigned to records that do not set one.
const DefaultPopularity = 5

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// document is the keyed file layout: {"functions": [...]} in JSON and YAML,
// [[functions]] tables in TOML.
type document struct {
	Functions []*core.FunctionRecord `json:"functions" yaml:"functions" toml:"functions"`
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// LoadFile reads and normalizes the records in a catalog file.
// Records are not validated here.
func LoadFile(path string) ([]*core.FunctionRecord, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Decode parses catalog data. JSON and YAML accept a bare list of records
// or a document with a functions key; TOML requires the document form.
func Decode(data []byte, format Format) ([]*core.FunctionRecord, error) {
	var records []*core.FunctionRecord
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &records); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
			}
			break
		}
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}
		records = doc.Functions

	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}
		if len(root.Content) == 0 {
			return []*core.FunctionRecord{}, nil
		}
		var err error
		if root.Content[0].Kind == yaml.SequenceNode {
			err = root.Content[0].Decode(&records)
		} else {
			var doc document
			err = root.Content[0].Decode(&doc)
			records = doc.Functions
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}

	case FormatTOML:
		var doc document
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}
		records = doc.Functions

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	out := make([]*core.FunctionRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		Normalize(r)
		out = append(out, r)
	}
	return out, nil
}

// Normalize fills defaults in place: language python, ID <name>_<language>,
// popularity DefaultPopularity. Keywords are trimmed, lowercased and
// deduplicated in order; an empty keyword list becomes nil.
func Normalize(r *core.FunctionRecord) {
	r.Name = strings.TrimSpace(r.Name)
	r.Language = core.Language(strings.ToLower(strings.TrimSpace(string(r.Language))))
	if r.Language == "" {
		r.Language = core.LanguagePython
	}
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" && r.Name != "" {
		r.ID = r.Name + "_" + string(r.Language)
	}
	if r.Popularity == 0 {
		r.Popularity = DefaultPopularity
	}
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.DataType = strings.ToLower(strings.TrimSpace(r.DataType))
	r.Order = core.Order(strings.ToLower(strings.TrimSpace(string(r.Order))))
	r.Keywords = NormalizeKeywords(r.Keywords)
}

// NormalizeKeywords lowercases, trims and deduplicates keywords, keeping
// first occurrences in order.
func NormalizeKeywords(keywords []string) []string {
	var out []string
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
