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

// GetHolders returns every holder record
func (d *Database) GetHolders(txn *Txn) ([]models.Holder, error) {
	var ret []models.Holder
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetHolders(txn.Metadata())
		return err
	})
	return ret, err
}

// GetHolder returns a holder record, or nil if the address was never seen
func (d *Database) GetHolder(address []byte, txn *Txn) (*models.Holder, error) {
	var ret *models.Holder
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetHolder(address, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetHolder(holder *models.Holder, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetHolder(holder, txn.Metadata())
	})
}

func (d *Database) GetTallyEntries(txn *Txn) ([]models.TallyEntry, error) {
	var ret []models.TallyEntry
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetTallyEntries(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetTallyEntry(entry *models.TallyEntry, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetTallyEntry(entry, txn.Metadata())
	})
}

func (d *Database) GetRoles(txn *Txn) ([]models.Role, error) {
	var ret []models.Role
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetRoles(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetRole(role *models.Role, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetRole(role, txn.Metadata())
	})
}

// GetGovernanceState returns the governance singleton, or nil before genesis
func (d *Database) GetGovernanceState(
	txn *Txn,
) (*models.GovernanceState, error) {
	var ret *models.GovernanceState
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetGovernanceState(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetGovernanceState(
	state *models.GovernanceState,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetGovernanceState(state, txn.Metadata())
	})
}

func (d *Database) GetFeeCategories(txn *Txn) ([]models.FeeCategory, error) {
	var ret []models.FeeCategory
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetFeeCategories(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetFeeCategory(fc *models.FeeCategory, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetFeeCategory(fc, txn.Metadata())
	})
}

func (d *Database) GetFeeExemptions(txn *Txn) ([]models.FeeExemption, error) {
	var ret []models.FeeExemption
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetFeeExemptions(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetFeeExemption(fe *models.FeeExemption, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetFeeExemption(fe, txn.Metadata())
	})
}
