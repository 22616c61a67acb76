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
	"errors"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// errInvalidLength reports a slice length prefix that cannot be right for
// the remaining input.
var errInvalidLength = errors.New("invalid length prefix")

// FunctionRecordMUS is the binary codec for stored catalog records.
var FunctionRecordMUS = functionRecordMUS{}

// CheckpointMUS is the binary codec for processor checkpoints.
// UpdatedAt is kept with microsecond precision.
var CheckpointMUS = checkpointMUS{}

var (
	_ mus.Serializer[FunctionRecord] = FunctionRecordMUS
	_ mus.Serializer[Checkpoint]     = CheckpointMUS
)

type stringsMUS struct{}

func (stringsMUS) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return
}

func (stringsMUS) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	// every element takes at least one byte
	if length < 0 || length > len(bs)-n {
		err = errInvalidLength
		return
	}
	if length == 0 {
		return
	}
	v = make([]string, length)
	var n1 int
	for i := range v {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (stringsMUS) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return
}

func (stringsMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 || length > len(bs)-n {
		err = errInvalidLength
		return
	}
	var n1 int
	for range length {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

var keywordsMUS = stringsMUS{}

type functionRecordMUS struct{}

func (functionRecordMUS) Marshal(v FunctionRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.Code, bs[n:])
	n += ord.String.Marshal(string(v.Language), bs[n:])
	n += keywordsMUS.Marshal(v.Keywords, bs[n:])
	n += ord.String.Marshal(v.Action, bs[n:])
	n += ord.String.Marshal(v.DataType, bs[n:])
	n += ord.String.Marshal(string(v.Order), bs[n:])
	n += ord.String.Marshal(v.Usage, bs[n:])
	n += ord.String.Marshal(v.Complexity, bs[n:])
	return n + varint.Int.Marshal(v.Popularity, bs[n:])
}

func (functionRecordMUS) Unmarshal(bs []byte) (v FunctionRecord, n int, err error) {
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var (
		n1 int
		s  string
	)
	strs := []*string{&v.Name, &v.Description, &v.Code}
	for _, p := range strs {
		*p, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	s, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Language = Language(s)
	v.Keywords, n1, err = keywordsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for _, p := range []*string{&v.Action, &v.DataType} {
		*p, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	s, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Order = Order(s)
	for _, p := range []*string{&v.Usage, &v.Complexity} {
		*p, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.Popularity, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (functionRecordMUS) Size(v FunctionRecord) (size int) {
	for _, s := range []string{
		v.ID, v.Name, v.Description, v.Code, string(v.Language),
	} {
		size += ord.String.Size(s)
	}
	size += keywordsMUS.Size(v.Keywords)
	for _, s := range []string{
		v.Action, v.DataType, string(v.Order), v.Usage, v.Complexity,
	} {
		size += ord.String.Size(s)
	}
	return size + varint.Int.Size(v.Popularity)
}

func (functionRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for range 5 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = keywordsMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for range 5 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.Processor, bs)
	n += ord.String.Marshal(v.LastID, bs[n:])
	n += varint.Int.Marshal(v.Processed, bs[n:])
	return n + varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
}

func (checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	v.Processor, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.LastID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Processed, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.Processor)
	size += ord.String.Size(v.LastID)
	size += varint.Int.Size(v.Processed)
	return size + varint.Int64.Size(v.UpdatedAt.UnixMicro())
}

func (checkpointMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for range 2 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}
