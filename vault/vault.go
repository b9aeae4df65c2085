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

// Package vault keeps the native value balances paid out by the fee
// distribution engine
package vault

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/polity/database"
	"github.com/blinklabs-io/polity/database/models"
	"github.com/blinklabs-io/polity/database/types"
	"github.com/blinklabs-io/polity/ledger"
)

type VaultConfig struct {
	Logger  *slog.Logger
	Journal *ledger.Journal
}

type Vault struct {
	logger   *slog.Logger
	journal  *ledger.Journal
	balances map[ledger.Address]uint64
	total    uint64
}

func New(cfg VaultConfig) *Vault {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Journal == nil {
		cfg.Journal = ledger.NewJournal(nil)
	}
	return &Vault{
		logger:   cfg.Logger.With("component", "vault"),
		journal:  cfg.Journal,
		balances: make(map[ledger.Address]uint64),
	}
}

// Pay credits native value to an address
func (v *Vault) Pay(to ledger.Address, amount uint64) error {
	if to.IsNull() {
		return fmt.Errorf("%w: payment to null address", ledger.ErrInvalidArgument)
	}
	bal := v.balances[to]
	if bal+amount < bal || v.total+amount < v.total {
		return fmt.Errorf("%w: value balance overflows", ledger.ErrArithmetic)
	}
	v.setBalance(to, bal+amount)
	v.logger.Debug("paid value", "to", to.String(), "amount", amount)
	return nil
}

func (v *Vault) BalanceOf(addr ledger.Address) uint64 {
	return v.balances[addr]
}

// Total returns the value paid out over the lifetime of the vault
func (v *Vault) Total() uint64 {
	return v.total
}

func (v *Vault) Balances() map[ledger.Address]uint64 {
	ret := make(map[ledger.Address]uint64, len(v.balances))
	for addr, bal := range v.balances {
		ret[addr] = bal
	}
	return ret
}

func (v *Vault) setBalance(addr ledger.Address, bal uint64) {
	prev, existed := v.balances[addr]
	prevTotal := v.total
	v.total = v.total - prev + bal
	v.balances[addr] = bal
	v.journal.Record(func() {
		v.total = prevTotal
		if existed {
			v.balances[addr] = prev
		} else {
			delete(v.balances, addr)
		}
	})
	v.journal.Persist("value:"+addr.Hex(), func(txn *database.Txn) error {
		return txn.DB().SetValueAccount(
			&models.ValueAccount{
				Address: addr.Bytes(),
				Balance: types.Uint64(v.balances[addr]),
			},
			txn,
		)
	})
}

// Load replaces the in-memory balances with the ones stored in db
func (v *Vault) Load(db *database.Database) error {
	accounts, err := db.GetValueAccounts(nil)
	if err != nil {
		return fmt.Errorf("load value accounts: %w", err)
	}
	balances := make(map[ledger.Address]uint64, len(accounts))
	var total uint64
	for _, m := range accounts {
		addr, err := ledger.NewAddress(m.Address)
		if err != nil {
			return err
		}
		balances[addr] = uint64(m.Balance)
		total += uint64(m.Balance)
	}
	v.balances = balances
	v.total = total
	return nil
}
