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

// Package gormstore holds the gorm-backed metadata queries shared by the
// relational metadata plugins.
package gormstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/polity/database/models"
	"github.com/blinklabs-io/polity/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"
)

// gormTxn wraps a gorm transaction and implements types.Txn
type gormTxn struct {
	db       *gorm.DB
	beginErr error
	finished bool
}

func (t *gormTxn) Commit() error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	if result := t.db.Commit(); result.Error != nil {
		return result.Error
	}
	t.finished = true
	return nil
}

func (t *gormTxn) Rollback() error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	if result := t.db.Rollback(); result.Error != nil {
		return result.Error
	}
	t.finished = true
	return nil
}

// Store implements the metadata queries on top of a gorm handle. It is
// embedded by each relational plugin, which owns opening and closing the
// underlying connection.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Init attaches the gorm handle, configures tracing and applies schema migrations
func (s *Store) Init(db *gorm.DB, logger *slog.Logger) error {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s.db = db
	s.logger = logger
	// Configure tracing for GORM
	if err := s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return err
	}
	// Create table schemas
	s.logger.Debug(fmt.Sprintf("creating table: %#v", &CommitTimestamp{}))
	if err := s.db.AutoMigrate(&CommitTimestamp{}); err != nil {
		return err
	}
	for _, model := range models.MigrateModels {
		s.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := s.db.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

// DB returns the underlying gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction begins a gorm transaction. A failure to begin is reported by
// the returned handle on Commit/Rollback and by any query using it.
func (s *Store) Transaction() types.Txn {
	db := s.DB().Begin()
	if db.Error != nil {
		s.logger.Error(
			"failed to begin transaction",
			"error", db.Error,
		)
		return &gormTxn{beginErr: db.Error}
	}
	return &gormTxn{db: db}
}

// resolveDB returns the *gorm.DB for the given transaction, or the base
// handle if txn is nil
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return s.DB(), nil
	}
	gtxn, ok := txn.(*gormTxn)
	if !ok || gtxn == nil {
		return nil, types.ErrTxnWrongType
	}
	if gtxn.beginErr != nil {
		return nil, gtxn.beginErr
	}
	if gtxn.finished {
		return nil, errors.New("transaction already finished")
	}
	return gtxn.db, nil
}

// upsert inserts the record or updates every column on a conflict over the
// given unique columns
func (s *Store) upsert(txn types.Txn, value any, columns ...string) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	conflictCols := make([]clause.Column, 0, len(columns))
	for _, col := range columns {
		conflictCols = append(conflictCols, clause.Column{Name: col})
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   conflictCols,
		UpdateAll: true,
	}).Create(value)
	return result.Error
}

// findAll loads every row of the destination slice's table
func (s *Store) findAll(txn types.Txn, dest any, order string) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Order(order).Find(dest).Error
}

// first loads a single row, returning false if there is none
func (s *Store) first(txn types.Txn, dest any, conds ...any) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.First(dest, conds...)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, result.Error
	}
	return true, nil
}
