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

package database

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/polity/database/types"
	"github.com/klauspost/compress/zstd"
)

// OperationRecord is one committed operation in the journal
type OperationRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Args      json.RawMessage `json:"args,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	ID        string          `json:"id"`
	Operation string          `json:"operation"`
	Caller    string          `json:"caller,omitempty"`
	Sequence  uint64          `json:"sequence"`
}

var (
	zstdEncoder     *zstd.Encoder
	zstdDecoder     *zstd.Decoder
	zstdInitOnce    sync.Once
	errZstdInitFail error
)

func initZstd() error {
	zstdInitOnce.Do(func() {
		var err error
		zstdEncoder, err = zstd.NewWriter(
			nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
		)
		if err != nil {
			errZstdInitFail = err
			return
		}
		zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			errZstdInitFail = err
		}
	})
	return errZstdInitFail
}

func encodeOperationRecord(rec *OperationRecord) ([]byte, error) {
	if err := initZstd(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

func decodeOperationRecord(data []byte) (*OperationRecord, error) {
	if err := initZstd(); err != nil {
		return nil, err
	}
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress operation record: %w", err)
	}
	rec := &OperationRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("decode operation record: %w", err)
	}
	return rec, nil
}

func (d *Database) lastOperationSequence(txn *Txn) (uint64, error) {
	val, err := d.blob.Get(txn.Blob(), []byte(types.OperationSequenceBlobKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(val) != 8 {
		return 0, errors.New("invalid operation sequence length")
	}
	return binary.BigEndian.Uint64(val), nil
}

// LastOperationSequence returns the sequence number of the newest journal
// record, or 0 if the journal is empty
func (d *Database) LastOperationSequence(txn *Txn) (uint64, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	return d.lastOperationSequence(txn)
}

// AppendOperation assigns the next sequence number to rec and writes it to
// the journal
func (d *Database) AppendOperation(rec *OperationRecord, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	seq, err := d.lastOperationSequence(txn)
	if err != nil {
		return err
	}
	seq++
	rec.Sequence = seq
	data, err := encodeOperationRecord(rec)
	if err != nil {
		return err
	}
	if err := d.blob.Set(txn.Blob(), types.OperationBlobKey(seq), data); err != nil {
		return err
	}
	return d.blob.Set(
		txn.Blob(),
		[]byte(types.OperationSequenceBlobKey),
		types.OperationBlobKeyUint64ToBytes(seq),
	)
}

// GetOperations returns up to limit journal records starting at sequence from
func (d *Database) GetOperations(
	from uint64,
	limit int,
	txn *Txn,
) ([]OperationRecord, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	ret := []OperationRecord{}
	if limit <= 0 {
		return ret, nil
	}
	prefix := []byte(types.OperationBlobKeyPrefix)
	iter := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer iter.Close()
	for iter.Seek(types.OperationBlobKey(from)); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		if _, ok := types.OperationSeqFromKey(item.Key()); !ok {
			// Sequence counter
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		rec, err := decodeOperationRecord(val)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *rec)
		if len(ret) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}
