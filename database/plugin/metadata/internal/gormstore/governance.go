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

package gormstore

import (
	"github.com/blinklabs-io/polity/database/models"
	"github.com/blinklabs-io/polity/database/types"
)

// GetHolders returns every holder record
func (s *Store) GetHolders(txn types.Txn) ([]models.Holder, error) {
	var ret []models.Holder
	if err := s.findAll(txn, &ret, "id"); err != nil {
		return nil, err
	}
	return ret, nil
}

// GetHolder returns the holder record for an address, or nil if there is none
func (s *Store) GetHolder(
	address []byte,
	txn types.Txn,
) (*models.Holder, error) {
	ret := &models.Holder{}
	found, err := s.first(txn, ret, "address = ?", address)
	if err != nil || !found {
		return nil, err
	}
	return ret, nil
}

// SetHolder saves a holder record
func (s *Store) SetHolder(holder *models.Holder, txn types.Txn) error {
	return s.upsert(txn, holder, "address")
}

// GetTallyEntries returns every tally entry
func (s *Store) GetTallyEntries(txn types.Txn) ([]models.TallyEntry, error) {
	var ret []models.TallyEntry
	if err := s.findAll(txn, &ret, "id"); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetTallyEntry saves a tally entry
func (s *Store) SetTallyEntry(entry *models.TallyEntry, txn types.Txn) error {
	return s.upsert(txn, entry, "candidate", "category", "law_index")
}

// GetRoles returns every role record
func (s *Store) GetRoles(txn types.Txn) ([]models.Role, error) {
	var ret []models.Role
	if err := s.findAll(txn, &ret, "category"); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetRole saves a role record
func (s *Store) SetRole(role *models.Role, txn types.Txn) error {
	return s.upsert(txn, role, "category")
}

// GetGovernanceState returns the governance state, or nil if it has never been saved
func (s *Store) GetGovernanceState(
	txn types.Txn,
) (*models.GovernanceState, error) {
	ret := &models.GovernanceState{}
	found, err := s.first(txn, ret, "id = ?", models.GovernanceStateID)
	if err != nil || !found {
		return nil, err
	}
	return ret, nil
}

// SetGovernanceState saves the governance state
func (s *Store) SetGovernanceState(
	state *models.GovernanceState,
	txn types.Txn,
) error {
	state.ID = models.GovernanceStateID
	return s.upsert(txn, state, "id")
}

// GetFeeCategories returns every fee category record
func (s *Store) GetFeeCategories(txn types.Txn) ([]models.FeeCategory, error) {
	var ret []models.FeeCategory
	if err := s.findAll(txn, &ret, "category"); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetFeeCategory saves a fee category record
func (s *Store) SetFeeCategory(fc *models.FeeCategory, txn types.Txn) error {
	return s.upsert(txn, fc, "category")
}

// GetFeeExemptions returns every fee exemption record
func (s *Store) GetFeeExemptions(
	txn types.Txn,
) ([]models.FeeExemption, error) {
	var ret []models.FeeExemption
	if err := s.findAll(txn, &ret, "id"); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetFeeExemption saves a fee exemption record
func (s *Store) SetFeeExemption(fe *models.FeeExemption, txn types.Txn) error {
	return s.upsert(txn, fe, "address")
}
