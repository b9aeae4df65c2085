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

package polity

import (
	"github.com/blinklabs-io/polity/database"
	"github.com/blinklabs-io/polity/ledger"
)

// Status is a snapshot of the whole node state
type Status struct {
	ledger.Status
	TotalSupply uint64 `json:"totalSupply"`
	VaultTotal  uint64 `json:"vaultTotal"`
	Sequence    uint64 `json:"sequence"`
}

// Account combines the registry entry, token balance and paid out value of
// an address
type Account struct {
	Holder    ledger.Holder  `json:"holder"`
	Address   ledger.Address `json:"address"`
	Balance   uint64         `json:"balance"`
	Value     uint64         `json:"value"`
	FeeExempt bool           `json:"feeExempt"`
}

func (n *Node) Status() (Status, error) {
	var ret Status
	err := n.read(func() error {
		seq, err := n.db.LastOperationSequence(nil)
		if err != nil {
			return err
		}
		ret = Status{
			Status:      n.ledgerState.Status(),
			TotalSupply: n.token.TotalSupply(),
			VaultTotal:  n.vault.Total(),
			Sequence:    seq,
		}
		return nil
	})
	return ret, err
}

func (n *Node) Account(addr ledger.Address) (Account, error) {
	var ret Account
	err := n.read(func() error {
		ret = Account{
			Address:   addr,
			Holder:    n.ledgerState.Holder(addr),
			Balance:   n.token.BalanceOf(addr),
			Value:     n.vault.BalanceOf(addr),
			FeeExempt: n.ledgerState.IsFeeExempt(addr),
		}
		return nil
	})
	return ret, err
}

func (n *Node) Allowance(owner, spender ledger.Address) (uint64, error) {
	var ret uint64
	err := n.read(func() error {
		ret = n.token.Allowance(owner, spender)
		return nil
	})
	return ret, err
}

func (n *Node) Tally(key ledger.TallyKey) (uint64, error) {
	var ret uint64
	err := n.read(func() error {
		ret = n.ledgerState.Tally(key)
		return nil
	})
	return ret, err
}

// TallyEntries returns every non-zero tally, ordered by category
func (n *Node) TallyEntries() ([]ledger.TallyEntry, error) {
	var ret []ledger.TallyEntry
	err := n.read(func() error {
		for _, entry := range n.ledgerState.TallyEntries() {
			// Entries emptied by restriction or a changed choice are kept
			// in the ledger but are not reported
			if entry.Weight == 0 {
				continue
			}
			ret = append(ret, entry)
		}
		return nil
	})
	return ret, err
}

func (n *Node) RoleHolder(cat ledger.Category) (ledger.Address, error) {
	var ret ledger.Address
	err := n.read(func() error {
		var err error
		ret, err = n.ledgerState.RoleHolder(cat)
		return err
	})
	return ret, err
}

func (n *Node) FeeExemptions() ([]ledger.Address, error) {
	var ret []ledger.Address
	err := n.read(func() error {
		ret = n.ledgerState.FeeExemptions()
		return nil
	})
	return ret, err
}

func (n *Node) Entitlement(cat ledger.FeeCategory) (uint64, error) {
	var ret uint64
	err := n.read(func() error {
		var err error
		ret, err = n.ledgerState.Entitlement(cat)
		return err
	})
	return ret, err
}

// History returns up to limit committed operations starting at sequence from
func (n *Node) History(from uint64, limit int) ([]database.OperationRecord, error) {
	var ret []database.OperationRecord
	err := n.read(func() error {
		var err error
		ret, err = n.db.GetOperations(from, limit, nil)
		return err
	})
	return ret, err
}
