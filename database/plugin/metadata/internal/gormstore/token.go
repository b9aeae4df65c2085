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

// GetTokenBalances returns every token balance record
func (s *Store) GetTokenBalances(txn types.Txn) ([]models.TokenBalance, error) {
	var ret []models.TokenBalance
	if err := s.findAll(txn, &ret, "id"); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetTokenBalance saves a token balance record
func (s *Store) SetTokenBalance(tb *models.TokenBalance, txn types.Txn) error {
	return s.upsert(txn, tb, "address")
}

// GetTokenAllowances returns every token allowance record
func (s *Store) GetTokenAllowances(
	txn types.Txn,
) ([]models.TokenAllowance, error) {
	var ret []models.TokenAllowance
	if err := s.findAll(txn, &ret, "id"); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetTokenAllowance saves a token allowance record
func (s *Store) SetTokenAllowance(
	ta *models.TokenAllowance,
	txn types.Txn,
) error {
	return s.upsert(txn, ta, "owner", "spender")
}

// GetTokenSupply returns the token supply record, or nil if it has never been saved
func (s *Store) GetTokenSupply(txn types.Txn) (*models.TokenSupply, error) {
	ret := &models.TokenSupply{}
	found, err := s.first(txn, ret, "id = ?", models.TokenSupplyID)
	if err != nil || !found {
		return nil, err
	}
	return ret, nil
}

// SetTokenSupply saves the token supply record
func (s *Store) SetTokenSupply(ts *models.TokenSupply, txn types.Txn) error {
	ts.ID = models.TokenSupplyID
	return s.upsert(txn, ts, "id")
}

// GetValueAccounts returns every value account record
func (s *Store) GetValueAccounts(txn types.Txn) ([]models.ValueAccount, error) {
	var ret []models.ValueAccount
	if err := s.findAll(txn, &ret, "id"); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetValueAccount saves a value account record
func (s *Store) SetValueAccount(va *models.ValueAccount, txn types.Txn) error {
	return s.upsert(txn, va, "address")
}
