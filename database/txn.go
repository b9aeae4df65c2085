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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/polity/database/types"
)

type txnState uint8

const (
	txnOpen txnState = iota
	txnCommitted
	txnAborted
)

// Txn spans the metadata store and the journal blob store. A read-write
// commit writes the journal side first, so the metadata can never get ahead
// of the operations that produced it
type Txn struct {
	db        *Database
	blob      types.Txn
	metadata  types.Txn
	mu        sync.Mutex
	state     txnState
	readWrite bool
}

func newTxn(db *Database, readWrite bool, withMetadata bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if bs := db.Blob(); bs != nil {
		t.blob = bs.NewTransaction(readWrite)
	}
	if ms := db.Metadata(); withMetadata && ms != nil {
		t.metadata = ms.Transaction()
	}
	return t
}

func NewTxn(db *Database, readWrite bool) *Txn {
	return newTxn(db, readWrite, true)
}

// NewBlobOnlyTxn opens a journal-only transaction
func NewBlobOnlyTxn(db *Database, readWrite bool) *Txn {
	return newTxn(db, readWrite, false)
}

func (t *Txn) DB() *Database {
	return t.db
}

func (t *Txn) Metadata() types.Txn {
	return t.metadata
}

func (t *Txn) Blob() types.Txn {
	return t.blob
}

// Do runs fn and commits, or rolls back when fn fails
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return t.Commit()
}

func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != txnOpen {
		return nil
	}
	// Read-only transactions only need their resources released
	if !t.readWrite {
		return t.abort()
	}
	if t.blob == nil && t.metadata == nil {
		t.state = txnAborted
		return types.ErrNoStoreAvailable
	}
	if t.blob != nil && t.metadata != nil {
		stamp := time.Now().UnixMilli()
		if err := t.db.updateCommitTimestamp(t, stamp); err != nil {
			return errors.Join(
				fmt.Errorf("stamp commit: %w", err),
				t.abort(),
			)
		}
	}
	if err := t.commitBlob(); err != nil {
		return err
	}
	return t.commitMetadata()
}

func (t *Txn) commitBlob() error {
	if t.blob == nil {
		return nil
	}
	if err := t.blob.Commit(); err != nil {
		if t.metadata != nil {
			_ = t.metadata.Rollback()
		}
		t.state = txnAborted
		return fmt.Errorf("journal commit: %w", err)
	}
	return nil
}

// commitMetadata runs after the journal side is durable. A failure here
// leaves the stores with different commit timestamps, which the next open
// reports as a CommitTimestampError
func (t *Txn) commitMetadata() error {
	t.state = txnCommitted
	if t.metadata == nil {
		return nil
	}
	if err := t.metadata.Commit(); err != nil {
		_ = t.metadata.Rollback()
		t.db.logger.Error(
			"metadata commit failed after journal commit",
			"component", "database",
			"error", err,
		)
		return fmt.Errorf("metadata commit: %w", err)
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.abort()
}

func (t *Txn) abort() error {
	if t.state != txnOpen {
		return nil
	}
	t.state = txnAborted
	var err error
	if t.blob != nil {
		if rbErr := t.blob.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("journal rollback: %w", rbErr))
		}
	}
	if t.metadata != nil {
		if rbErr := t.metadata.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("metadata rollback: %w", rbErr))
		}
	}
	return err
}

// Release is Rollback for deferred cleanup. Errors are only logged
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}

// withTxn runs fn in txn, or in a new transaction when txn is nil
func (d *Database) withTxn(txn *Txn, readWrite bool, fn func(*Txn) error) error {
	if txn != nil {
		return fn(txn)
	}
	return d.Transaction(readWrite).Do(fn)
}
