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
	"encoding/binary"
	"fmt"

	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/funcrec/core"
)

// MarshalSeq serializes an insertion sequence number to 8 big-endian bytes,
// so that byte order matches numeric order.
func MarshalSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

// UnmarshalSeq deserializes a sequence number written by MarshalSeq.
func UnmarshalSeq(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, ErrTruncatedData
	}
	return binary.BigEndian.Uint64(data), nil
}

// MarshalRecord serializes a record prefixed with its insertion sequence
// number.
func MarshalRecord(seq uint64, record *core.FunctionRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", ErrSerializationFailed)
	}
	buf := make([]byte, varint.Uint64.Size(seq)+core.FunctionRecordMUS.Size(*record))
	n := varint.Uint64.Marshal(seq, buf)
	core.FunctionRecordMUS.Marshal(*record, buf[n:])
	return buf, nil
}

// UnmarshalRecord deserializes a record and its sequence number.
func UnmarshalRecord(data []byte) (uint64, *core.FunctionRecord, error) {
	if len(data) == 0 {
		return 0, nil, ErrTruncatedData
	}
	seq, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: sequence: %w", ErrSerializationFailed, err)
	}
	record, n1, err := core.FunctionRecordMUS.Unmarshal(data[n:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: record: %w", ErrSerializationFailed, err)
	}
	if n+n1 != len(data) {
		return 0, nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n-n1)
	}
	return seq, &record, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) ([]byte, error) {
	if checkpoint == nil {
		return nil, fmt.Errorf("%w: nil checkpoint", ErrSerializationFailed)
	}
	buf := make([]byte, core.CheckpointMUS.Size(*checkpoint))
	core.CheckpointMUS.Marshal(*checkpoint, buf)
	return buf, nil
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	checkpoint, n, err := core.CheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &checkpoint, nil
}
