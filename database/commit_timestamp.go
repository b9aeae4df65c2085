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
	"fmt"
)

// CommitTimestampError means a commit reached the journal but not the
// metadata store, or the reverse. LastSequence is the newest journal record,
// which may describe an operation whose state was never applied
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
	LastSequence      uint64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (journal), last journal sequence %d",
		e.MetadataTimestamp,
		e.BlobTimestamp,
		e.LastSequence,
	)
}

func (d *Database) checkCommitTimestamp() error {
	metadataTimestamp, err := d.metadata.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read metadata commit timestamp: %w", err)
	}
	blobTimestamp, err := d.blob.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read journal commit timestamp: %w", err)
	}
	if blobTimestamp == metadataTimestamp {
		return nil
	}
	// A fresh database has neither
	if metadataTimestamp <= 0 && blobTimestamp <= 0 {
		return nil
	}
	lastSeq, err := d.LastOperationSequence(nil)
	if err != nil {
		return fmt.Errorf("read journal sequence: %w", err)
	}
	return CommitTimestampError{
		MetadataTimestamp: metadataTimestamp,
		BlobTimestamp:     blobTimestamp,
		LastSequence:      lastSeq,
	}
}

// RecoverCommitTimestamp restamps both stores after a partial commit. The
// metadata store holds the authoritative state, so the journal may retain one
// record for an operation whose state was never applied
func (d *Database) RecoverCommitTimestamp() error {
	d.logger.Warn(
		"restamping stores after commit timestamp mismatch",
		"component", "database",
	)
	// Every read-write commit stamps both stores
	return d.Transaction(true).Do(func(*Txn) error { return nil })
}

func (d *Database) updateCommitTimestamp(txn *Txn, timestamp int64) error {
	if err := d.metadata.SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := d.blob.SetCommitTimestamp(timestamp, txn.Blob()); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}
