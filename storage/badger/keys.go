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

package badger

import (
	"fmt"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
)

const (
	functionRecordPrefix   = "funrec"
	functionOrderPrefix    = "funord"
	functionLanguagePrefix = "funlang"
	functionRecordSeq      = "funrecseq"
)

// makeRecordKey generates a key for a function record by ID.
func makeRecordKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", functionRecordPrefix, id))
}

// makeOrderKey generates a key for the insertion-order index.
// Format: prefix:seq
func makeOrderKey(seq uint64) []byte {
	prefix := []byte(functionOrderPrefix + ":")
	buf := make([]byte, 0, len(prefix)+8)
	buf = append(buf, prefix...)
	// Big-endian so lexicographic order is insertion order
	return append(buf, storage.MarshalSeq(seq)...)
}

// orderKeyPrefix matches every insertion-order index key.
func orderKeyPrefix() []byte {
	return []byte(functionOrderPrefix + ":")
}

// makeLanguageKey generates a composite key for the language index.
// Format: prefix:language:seq
func makeLanguageKey(language core.Language, seq uint64) []byte {
	prefix := languageKeyPrefix(language)
	buf := make([]byte, 0, len(prefix)+8)
	buf = append(buf, prefix...)
	return append(buf, storage.MarshalSeq(seq)...)
}

// languageKeyPrefix matches the language index entries of one language.
func languageKeyPrefix(language core.Language) []byte {
	return []byte(fmt.Sprintf("%s:%s:", functionLanguagePrefix, language))
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processor string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processor))
}
