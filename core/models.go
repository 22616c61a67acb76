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

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Language identifies the programming language of a catalog snippet.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageJava       Language = "java"
	LanguageCSharp     Language = "csharp"
	LanguageGo         Language = "go"
	LanguageRust       Language = "rust"
)

// Languages lists every supported language in display order.
var Languages = []Language{
	LanguagePython,
	LanguageJavaScript,
	LanguageJava,
	LanguageCSharp,
	LanguageGo,
	LanguageRust,
}

// IsValid reports whether l is one of the supported languages.
func (l Language) IsValid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// Order is the sort direction a function produces, if any.
type Order string

const (
	OrderNone       Order = ""
	OrderAscending  Order = "ascending"
	OrderDescending Order = "descending"
)

// Action tags used by the catalog and the intent extractor.
const (
	ActionSort      = "sort"
	ActionFilter    = "filter"
	ActionTransform = "transform"
	ActionCalculate = "calculate"
	ActionMerge     = "merge"
	ActionRemove    = "remove"
	ActionUnique    = "unique"
	ActionReverse   = "reverse"
	ActionFind      = "find"
	ActionSearch    = "search"
	ActionValidate  = "validate"
	ActionFormat    = "format"
	ActionParse     = "parse"
	ActionGroup     = "group"
	ActionConvert   = "convert"
	ActionClean     = "clean"
	ActionSlice     = "slice"
)

// Actions is the action vocabulary. Catalog authors may use other tags,
// but tag suggestions are restricted to this list.
var Actions = []string{
	ActionSort, ActionFilter, ActionTransform, ActionCalculate, ActionMerge,
	ActionRemove, ActionUnique, ActionReverse, ActionFind, ActionSearch,
	ActionValidate, ActionFormat, ActionParse, ActionGroup, ActionConvert,
	ActionClean, ActionSlice,
}

// Data type tags.
const (
	DataTypeList   = "list"
	DataTypeDict   = "dict"
	DataTypeString = "string"
	DataTypeNumber = "number"
	DataTypeTuple  = "tuple"
	DataTypeSet    = "set"
)

// DataTypes is the data type vocabulary.
var DataTypes = []string{
	DataTypeList, DataTypeDict, DataTypeString, DataTypeNumber, DataTypeTuple, DataTypeSet,
}

// FunctionRecord is one catalog entry: a reusable snippet and the metadata
// used to rank it. Records are treated as immutable once loaded.
type FunctionRecord struct {
	ID          string   `json:"id" yaml:"id" toml:"id"`
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Description string   `json:"description" yaml:"description" toml:"description"`
	Code        string   `json:"code" yaml:"code" toml:"code"`
	Language    Language `json:"language" yaml:"language" toml:"language"`
	Keywords    []string `json:"keywords" yaml:"keywords" toml:"keywords"`
	Action      string   `json:"action" yaml:"action" toml:"action"`
	DataType    string   `json:"data_type" yaml:"data_type" toml:"data_type"`
	Order       Order    `json:"order,omitempty" yaml:"order,omitempty" toml:"order,omitempty"`
	Usage       string   `json:"usage,omitempty" yaml:"usage,omitempty" toml:"usage,omitempty"`
	Complexity  string   `json:"complexity,omitempty" yaml:"complexity,omitempty" toml:"complexity,omitempty"`
	Popularity  int      `json:"popularity" yaml:"popularity" toml:"popularity"`
}

// Clone returns a deep copy of the record.
func (r *FunctionRecord) Clone() *FunctionRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Keywords = append([]string(nil), r.Keywords...)
	return &c
}

// Fingerprint returns a hex BLAKE2b-64 digest of the record's content.
// Identical content always yields the identical fingerprint.
func Fingerprint(r *FunctionRecord) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	fields := []string{
		r.ID, r.Name, r.Description, r.Code, string(r.Language),
		strings.Join(r.Keywords, ","), r.Action, r.DataType, string(r.Order),
		r.Usage, r.Complexity, strconv.Itoa(r.Popularity),
	}
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Intent is the structured interpretation of a raw query.
type Intent struct {
	RawQuery       string   `json:"raw_query"`
	Action         string   `json:"action,omitempty"`
	DataType       string   `json:"data_type,omitempty"`
	Order          Order    `json:"order,omitempty"`
	Keywords       []string `json:"keywords"`
	LanguageHint   Language `json:"language_hint,omitempty"`
	NameCandidates []string `json:"name_candidates"`
}

// HasKeyword reports whether any of words is among the intent keywords.
func (i *Intent) HasKeyword(words ...string) bool {
	for _, k := range i.Keywords {
		for _, w := range words {
			if k == w {
				return true
			}
		}
	}
	return false
}

// ScoredResult pairs a catalog record with its relevance score.
// Record is shared with the catalog snapshot and must not be modified.
type ScoredResult struct {
	Record           *FunctionRecord `json:"record"`
	Score            float64         `json:"relevance_score"`
	DescriptionMatch bool            `json:"description_match"`
}

// Popularity is the secondary tie-break key.
func (s ScoredResult) Popularity() int {
	if s.Record == nil {
		return 0
	}
	return s.Record.Popularity
}

// CatalogStats summarizes catalog contents.
type CatalogStats struct {
	Total      int              `json:"total_functions"`
	ByLanguage map[Language]int `json:"languages"`
}

// Checkpoint records how far a resumable batch processor has progressed
// through the catalog's insertion order.
type Checkpoint struct {
	Processor string    `json:"processor"`
	LastID    string    `json:"last_id"`
	Processed int       `json:"processed"`
	UpdatedAt time.Time `json:"updated_at"`
}
