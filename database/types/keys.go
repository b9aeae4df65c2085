// Copyright 2025 Blink Labs Software
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

package types

import (
	"encoding/binary"
	"slices"
)

const (
	OperationBlobKeyPrefix   = "op"
	OperationSequenceBlobKey = "op_seq"
)

func OperationBlobKeyUint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

// OperationBlobKey returns the key for the journal record with the given
// sequence number. Keys sort in sequence order.
func OperationBlobKey(seq uint64) []byte {
	return slices.Concat(
		[]byte(OperationBlobKeyPrefix),
		OperationBlobKeyUint64ToBytes(seq),
	)
}

// OperationSeqFromKey extracts the sequence number from a journal record key
func OperationSeqFromKey(key []byte) (uint64, bool) {
	prefixLen := len(OperationBlobKeyPrefix)
	if len(key) != prefixLen+8 {
		return 0, false
	}
	if string(key[:prefixLen]) != OperationBlobKeyPrefix {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[prefixLen:]), true
}
