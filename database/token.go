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
	"github.com/blinklabs-io/polity/database/models"
)

func (d *Database) GetTokenBalances(txn *Txn) ([]models.TokenBalance, error) {
	var ret []models.TokenBalance
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetTokenBalances(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetTokenBalance(tb *models.TokenBalance, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetTokenBalance(tb, txn.Metadata())
	})
}

func (d *Database) GetTokenAllowances(
	txn *Txn,
) ([]models.TokenAllowance, error) {
	var ret []models.TokenAllowance
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetTokenAllowances(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetTokenAllowance(
	ta *models.TokenAllowance,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetTokenAllowance(ta, txn.Metadata())
	})
}

// GetTokenSupply returns the supply record, or nil before genesis
func (d *Database) GetTokenSupply(txn *Txn) (*models.TokenSupply, error) {
	var ret *models.TokenSupply
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetTokenSupply(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetTokenSupply(ts *models.TokenSupply, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetTokenSupply(ts, txn.Metadata())
	})
}

func (d *Database) GetValueAccounts(txn *Txn) ([]models.ValueAccount, error) {
	var ret []models.ValueAccount
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetValueAccounts(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetValueAccount(va *models.ValueAccount, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetValueAccount(va, txn.Metadata())
	})
}
