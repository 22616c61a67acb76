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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/funcrec/core"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"a.json", FormatJSON, false},
		{"dir/a.YAML", FormatYAML, false},
		{"a.yml", FormatYAML, false},
		{"a.toml", FormatTOML, false},
		{"a.csv", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeLayouts(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"json array", FormatJSON, `[{"name": "merge_dicts", "code": "x", "keywords": ["Merge"]}]`},
		{"json document", FormatJSON, `{"functions": [{"name": "merge_dicts", "code": "x", "keywords": ["Merge"]}]}`},
		{"yaml list", FormatYAML, "- name: merge_dicts\n  code: x\n  keywords: [Merge]\n"},
		{"yaml document", FormatYAML, "functions:\n  - name: merge_dicts\n    code: x\n    keywords: [Merge]\n"},
		{"toml", FormatTOML, "[[functions]]\nname = \"merge_dicts\"\ncode = \"x\"\nkeywords = [\"Merge\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Decode([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.Len(t, records, 1)

			r := records[0]
			assert.Equal(t, "merge_dicts_python", r.ID)
			assert.Equal(t, core.LanguagePython, r.Language)
			assert.Equal(t, DefaultPopularity, r.Popularity)
			assert.Equal(t, []string{"merge"}, r.Keywords)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"functions": [`), FormatJSON)
	assert.ErrorIs(t, err, ErrMalformedFile)

	_, err = Decode([]byte("functions: [\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrMalformedFile)

	_, err = Decode([]byte("[[functions]\n"), FormatTOML)
	assert.ErrorIs(t, err, ErrMalformedFile)

	_, err = Decode([]byte("{}"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeEmpty(t *testing.T) {
	records, err := Decode([]byte(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = Decode([]byte("[]"), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNormalize(t *testing.T) {
	r := &core.FunctionRecord{
		Name:     " sortDescending ",
		Language: " JavaScript",
		Keywords: []string{"Sort", "sort", " ARRAY ", "", "array"},
		Action:   "SORT",
		Order:    "Descending",
	}
	Normalize(r)

	assert.Equal(t, "sortDescending", r.Name)
	assert.Equal(t, "sortDescending_javascript", r.ID)
	assert.Equal(t, core.LanguageJavaScript, r.Language)
	assert.Equal(t, []string{"sort", "array"}, r.Keywords)
	assert.Equal(t, "sort", r.Action)
	assert.Equal(t, core.OrderDescending, r.Order)
	assert.Equal(t, DefaultPopularity, r.Popularity)

	explicit := &core.FunctionRecord{ID: "custom", Name: "x", Language: core.LanguageGo, Popularity: 9}
	Normalize(explicit)
	assert.Equal(t, "custom", explicit.ID)
	assert.Equal(t, 9, explicit.Popularity)
	assert.Nil(t, explicit.Keywords)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.toml")
	data := `
[[functions]]
id = "chunk_go"
name = "Chunk"
description = "Splits a slice into chunks"
code = "func Chunk() {}"
language = "go"
action = "slice"
data_type = "list"
keywords = ["chunk", "split", "batch"]
popularity = 6

[[functions]]
name = "Window"
code = "func Window() {}"
language = "go"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	records, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "chunk_go", records[0].ID)
	assert.Equal(t, []string{"chunk", "split", "batch"}, records[0].Keywords)
	assert.Equal(t, "Window_go", records[1].ID)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadFile(filepath.Join(dir, "catalog.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
