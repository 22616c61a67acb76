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

package storage

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/funcrec/core"
)

func TestMarshalSeqPreservesOrder(t *testing.T) {
	seqs := []uint64{0, 1, 2, 255, 256, 1 << 32, 18446744073709551615}
	for i := 1; i < len(seqs); i++ {
		prev, cur := MarshalSeq(seqs[i-1]), MarshalSeq(seqs[i])
		assert.Equal(t, -1, bytes.Compare(prev, cur), "%d < %d", seqs[i-1], seqs[i])
	}

	for _, s := range seqs {
		got, err := UnmarshalSeq(MarshalSeq(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := UnmarshalSeq([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestMarshalRecord(t *testing.T) {
	record := &core.FunctionRecord{
		ID:         "sort_unique_desc_py",
		Name:       "sort_unique_desc",
		Code:       "def sort_unique_desc(xs):\n    return sorted(set(xs), reverse=True)",
		Language:   core.LanguagePython,
		Keywords:   []string{"sort", "unique"},
		Action:     core.ActionSort,
		Order:      core.OrderDescending,
		Usage:      "sort_unique_desc([3, 1, 3])",
		Complexity: "O(n log n)",
		Popularity: 7,
	}

	data, err := MarshalRecord(42, record)
	require.NoError(t, err)

	seq, decoded, err := UnmarshalRecord(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seq)
	assert.Equal(t, record, decoded)
}

func TestMarshalRecordErrors(t *testing.T) {
	_, err := MarshalRecord(1, nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	valid, err := MarshalRecord(3, &core.FunctionRecord{ID: "x", Name: "x", Code: "x", Keywords: []string{"a"}})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty data", nil, ErrTruncatedData},
		{"sequence only", valid[:1], ErrSerializationFailed},
		{"truncated record", valid[:len(valid)-1], ErrSerializationFailed},
		{"trailing bytes", append(append([]byte(nil), valid...), 0), ErrSerializationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := UnmarshalRecord(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMatchesTerm(t *testing.T) {
	r := &core.FunctionRecord{
		Name:        "mergeDicts",
		Description: "Merges two dictionaries",
		Keywords:    []string{"combine", "Join"},
	}

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"MERGE", true},
		{"dicts", true},
		{"two dict", true},
		{"join", true},
		{"comb", true},
		{"sort", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesTerm(r, tt.term), tt.term)
	}
}

func TestSortByPopularity(t *testing.T) {
	records := []*core.FunctionRecord{
		{ID: "a", Popularity: 3},
		{ID: "b", Popularity: 9},
		{ID: "c", Popularity: 3},
		{ID: "d", Popularity: 9},
	}
	SortByPopularity(records)

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestSearchLimit(t *testing.T) {
	assert.Equal(t, DefaultSearchLimit, SearchLimit(0))
	assert.Equal(t, DefaultSearchLimit, SearchLimit(-5))
	assert.Equal(t, 7, SearchLimit(7))
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	checkpoint := &core.Checkpoint{
		Processor: "enricher",
		LastID:    "merge_dicts_py",
		Processed: 12,
		UpdatedAt: now,
	}

	data, err := MarshalCheckpoint(checkpoint)
	require.NoError(t, err)

	decoded, err := UnmarshalCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.Processor, decoded.Processor)
	assert.Equal(t, checkpoint.LastID, decoded.LastID)
	assert.Equal(t, checkpoint.Processed, decoded.Processed)
	assert.True(t, checkpoint.UpdatedAt.Equal(decoded.UpdatedAt))

	_, err = UnmarshalCheckpoint(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = MarshalCheckpoint(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
