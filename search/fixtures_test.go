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

package search

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/poiesic/funcrec/core"
)

func rec(id, name, desc string, lang core.Language, action, dataType string, order core.Order, pop int, keywords ...string) *core.FunctionRecord {
	return &core.FunctionRecord{
		ID:          id,
		Name:        name,
		Description: desc,
		Code:        "// " + name,
		Language:    lang,
		Keywords:    keywords,
		Action:      action,
		DataType:    dataType,
		Order:       order,
		Popularity:  pop,
	}
}

// testCatalog returns a small multi-language catalog in fixed order.
func testCatalog() []*core.FunctionRecord {
	py, js, gol := core.LanguagePython, core.LanguageJavaScript, core.LanguageGo
	return []*core.FunctionRecord{
		rec("sort_unique_desc_py", "sort_unique_desc", "Sorts a list in descending order and removes duplicates", py,
			core.ActionSort, core.DataTypeList, core.OrderDescending, 7, "sort", "unique", "descending", "remove", "duplicates"),
		rec("remove_duplicates_py", "remove_duplicates", "Removes duplicate items from a list while preserving order", py,
			core.ActionFilter, core.DataTypeList, core.OrderNone, 9, "remove", "duplicates", "unique"),
		rec("sort_descending_py", "sort_descending", "Sorts a list in descending order", py,
			core.ActionSort, core.DataTypeList, core.OrderDescending, 8, "sort", "descending", "order", "reverse"),
		rec("sort_ascending_py", "sort_ascending", "Sorts a list in ascending order", py,
			core.ActionSort, core.DataTypeList, core.OrderAscending, 8, "sort", "ascending", "order"),
		rec("group_by_key_py", "group_by_key", "Groups a list of dictionaries by the value of a key", py,
			core.ActionGroup, core.DataTypeList, core.OrderNone, 6, "group", "key", "organize", "categorize"),
		rec("flatten_list_py", "flatten_list", "Flattens a nested list into a single list", py,
			core.ActionTransform, core.DataTypeList, core.OrderNone, 7, "flatten", "nested", "list"),
		rec("find_min_py", "find_min", "Finds the minimum value in a list", py,
			core.ActionFind, core.DataTypeList, core.OrderNone, 8, "find", "min", "minimum", "smallest"),
		rec("find_max_py", "find_max", "Finds the maximum value in a list", py,
			core.ActionFind, core.DataTypeList, core.OrderNone, 8, "find", "max", "maximum", "largest"),
		rec("min_value_py", "min_value", "Calculates the minimum value of a list of numbers", py,
			core.ActionCalculate, core.DataTypeNumber, core.OrderNone, 6, "min", "minimum", "calculate", "smallest"),
		rec("calculate_average_py", "calculate_average", "Calculates the average of a list of numbers", py,
			core.ActionCalculate, core.DataTypeNumber, core.OrderNone, 7, "average", "mean", "calculate"),
		rec("merge_dicts_py", "merge_dicts", "Merges two dictionaries into a new dictionary", py,
			core.ActionMerge, core.DataTypeDict, core.OrderNone, 8, "merge", "combine", "dictionaries", "join"),
		rec("find_uppercase_py", "find_uppercase", "Finds all uppercase letters in a string", py,
			core.ActionFind, core.DataTypeString, core.OrderNone, 5, "find", "uppercase", "letters", "capital"),
		rec("find_lowercase_py", "find_lowercase", "Finds all lowercase letters in a string", py,
			core.ActionFind, core.DataTypeString, core.OrderNone, 5, "find", "lowercase", "letters"),

		rec("sort_descending_js", "sortDescending", "Sorts an array of numbers in descending order", js,
			core.ActionSort, core.DataTypeList, core.OrderDescending, 8, "sort", "array", "descending"),
		rec("remove_duplicates_js", "removeDuplicates", "Removes duplicate values from an array using a Set", js,
			core.ActionFilter, core.DataTypeList, core.OrderNone, 9, "remove", "duplicates", "unique", "array"),
		rec("debounce_js", "debounce", "Delays invoking a function until a pause in calls", js,
			core.ActionTransform, "", core.OrderNone, 6, "debounce", "delay", "throttle"),

		rec("reverse_string_go", "ReverseString", "Reverses a string rune by rune", gol,
			core.ActionReverse, core.DataTypeString, core.OrderNone, 7, "reverse", "string", "runes"),
		rec("sort_ints_desc_go", "SortIntsDesc", "Sorts a slice of ints in descending order", gol,
			core.ActionSort, core.DataTypeList, core.OrderDescending, 6, "sort", "slice", "descending"),
	}
}

// sliceCatalog serves records from memory and counts reads.
type sliceCatalog struct {
	records []*core.FunctionRecord
	err     error
	calls   atomic.Int32
}

func (c *sliceCatalog) ListRecords(_ context.Context, language core.Language) ([]*core.FunctionRecord, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	out := make([]*core.FunctionRecord, 0, len(c.records))
	for _, r := range c.records {
		if language == "" || r.Language == language {
			out = append(out, r)
		}
	}
	return out, nil
}

var errDiskGone = errors.New("disk gone")

func find(records []*core.FunctionRecord, id string) *core.FunctionRecord {
	for _, r := range records {
		if r.ID == id {
			return r
		}
	}
	return nil
}
