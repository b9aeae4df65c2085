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
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrBlobKeyNotFound      = errors.New("blob key not found")
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")
	ErrNoStoreAvailable     = errors.New("no store available")
	ErrNilTxn               = errors.New("nil transaction")
	ErrTxnWrongType         = errors.New("invalid transaction type")
)

// Uint64 holds balances, weights and counters. Values are stored as decimal
// strings because neither sqlite nor postgres has an unsigned 64-bit column
//
//nolint:recvcheck
type Uint64 uint64

func (Uint64) GormDataType() string {
	return "string"
}

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

func (u *Uint64) Scan(val any) error {
	switch v := val.(type) {
	case string:
		return u.parse(v)
	case []byte:
		return u.parse(string(v))
	case int64:
		// Drivers may hand back numeric affinity for small values
		if v < 0 {
			return fmt.Errorf("negative stored amount: %d", v)
		}
		*u = Uint64(v)
		return nil
	case nil:
		*u = 0
		return nil
	default:
		return fmt.Errorf("unexpected stored amount type %T", val)
	}
}

func (u *Uint64) parse(s string) error {
	tmp, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse stored amount: %w", err)
	}
	*u = Uint64(tmp)
	return nil
}

// Txn is the commit handle of a single store. database.Txn pairs one from
// each store
type Txn interface {
	Commit() error
	Rollback() error
}

// BlobItem is a journal entry returned by an iterator
type BlobItem interface {
	Key() []byte
	ValueCopy(dst []byte) ([]byte, error)
}

// BlobIterator walks journal keys in order. Items must not be used after the
// transaction that created the iterator has finished
type BlobIterator interface {
	Rewind()
	Seek(key []byte)
	Valid() bool
	ValidForPrefix(prefix []byte) bool
	Next()
	Item() BlobItem
	Close()
	Err() error
}

type BlobIteratorOptions struct {
	Prefix  []byte
	Reverse bool
}
