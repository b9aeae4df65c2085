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

// Package token implements the transferable balance that carries voting
// weight. Every balance movement is reported to the vote ledger before the
// balances change, and transfers pay the configured fee to the fee
// recipient.
package token

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/polity/database"
	"github.com/blinklabs-io/polity/database/models"
	"github.com/blinklabs-io/polity/database/types"
	"github.com/blinklabs-io/polity/event"
	"github.com/blinklabs-io/polity/ledger"
)

const TransferEventType event.EventType = "token.transfer"

// TransferEvent describes a balance movement. From is the null address for
// a mint
type TransferEvent struct {
	From   ledger.Address `json:"from"`
	To     ledger.Address `json:"to"`
	Amount uint64         `json:"amount"`
	Fee    uint64         `json:"fee"`
}

// VoteLedger is the part of the vote ledger the token reports to
type VoteLedger interface {
	ComputeFee(from, to ledger.Address, amount uint64) uint64
	TransferVote(from, to ledger.Address, amount, fee uint64) error
	FeeRecipient() ledger.Address
}

type TokenConfig struct {
	Logger  *slog.Logger
	Journal *ledger.Journal
	Ledger  VoteLedger
}

type allowanceKey struct {
	owner   ledger.Address
	spender ledger.Address
}

// Token holds balances, allowances and the total supply. Like the ledger it
// relies on the caller to serialize access
type Token struct {
	config     TokenConfig
	logger     *slog.Logger
	journal    *ledger.Journal
	ledger     VoteLedger
	balances   map[ledger.Address]uint64
	allowances map[allowanceKey]uint64
	supply     uint64
}

func New(cfg TokenConfig) (*Token, error) {
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("%w: token requires a vote ledger", ledger.ErrInvalidArgument)
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Journal == nil {
		cfg.Journal = ledger.NewJournal(nil)
	}
	return &Token{
		config:     cfg,
		logger:     cfg.Logger.With("component", "token"),
		journal:    cfg.Journal,
		ledger:     cfg.Ledger,
		balances:   make(map[ledger.Address]uint64),
		allowances: make(map[allowanceKey]uint64),
	}, nil
}

func (t *Token) BalanceOf(addr ledger.Address) uint64 {
	return t.balances[addr]
}

// Balances returns a copy of every non-zero balance
func (t *Token) Balances() map[ledger.Address]uint64 {
	ret := make(map[ledger.Address]uint64, len(t.balances))
	for addr, bal := range t.balances {
		if bal > 0 {
			ret[addr] = bal
		}
	}
	return ret
}

func (t *Token) Allowance(owner, spender ledger.Address) uint64 {
	return t.allowances[allowanceKey{owner: owner, spender: spender}]
}

func (t *Token) TotalSupply() uint64 {
	return t.supply
}

// Transfer moves amount from one holder to another and returns the fee
// credited to the fee recipient
func (t *Token) Transfer(from, to ledger.Address, amount uint64) (uint64, error) {
	if from.IsNull() || to.IsNull() {
		return 0, fmt.Errorf("%w: transfer with null address", ledger.ErrInvalidArgument)
	}
	if t.balances[from] < amount {
		return 0, fmt.Errorf(
			"%w: balance %d is below %d",
			ledger.ErrInsufficientFunds,
			t.balances[from],
			amount,
		)
	}
	fee := t.ledger.ComputeFee(from, to, amount)
	recipient := t.ledger.FeeRecipient()
	// Stage the new balances so that nothing changes if any step fails
	staged := map[ledger.Address]uint64{from: t.balances[from] - amount}
	if err := stageCredit(staged, t.balances, to, amount-fee); err != nil {
		return 0, err
	}
	if fee > 0 {
		if err := stageCredit(staged, t.balances, recipient, fee); err != nil {
			return 0, err
		}
	}
	if err := t.ledger.TransferVote(from, to, amount, fee); err != nil {
		return 0, err
	}
	for addr, bal := range staged {
		t.setBalance(addr, bal)
	}
	t.journal.Emit(
		TransferEventType,
		TransferEvent{From: from, To: to, Amount: amount, Fee: fee},
	)
	return fee, nil
}

func stageCredit(
	staged map[ledger.Address]uint64,
	current map[ledger.Address]uint64,
	addr ledger.Address,
	amount uint64,
) error {
	bal, ok := staged[addr]
	if !ok {
		bal = current[addr]
	}
	if bal+amount < bal {
		return fmt.Errorf("%w: balance of %s overflows", ledger.ErrArithmetic, addr)
	}
	staged[addr] = bal + amount
	return nil
}

// Approve sets the amount spender may move out of owner's balance
func (t *Token) Approve(owner, spender ledger.Address, amount uint64) error {
	if owner.IsNull() || spender.IsNull() {
		return fmt.Errorf("%w: approval with null address", ledger.ErrInvalidArgument)
	}
	t.setAllowance(allowanceKey{owner: owner, spender: spender}, amount)
	return nil
}

// TransferFrom moves tokens on behalf of their owner and consumes allowance
func (t *Token) TransferFrom(spender, from, to ledger.Address, amount uint64) (uint64, error) {
	key := allowanceKey{owner: from, spender: spender}
	allowance := t.allowances[key]
	if allowance < amount {
		return 0, fmt.Errorf(
			"%w: allowance %d is below %d",
			ledger.ErrInsufficientFunds,
			allowance,
			amount,
		)
	}
	fee, err := t.Transfer(from, to, amount)
	if err != nil {
		return 0, err
	}
	t.setAllowance(key, allowance-amount)
	return fee, nil
}

// Mint creates new tokens. The vote ledger sees it as a transfer from the
// null address
func (t *Token) Mint(to ledger.Address, amount uint64) error {
	if to.IsNull() {
		return fmt.Errorf("%w: mint to null address", ledger.ErrInvalidArgument)
	}
	if t.supply+amount < t.supply {
		return fmt.Errorf("%w: total supply overflows", ledger.ErrArithmetic)
	}
	if err := t.ledger.TransferVote(ledger.NullAddress, to, amount, 0); err != nil {
		return err
	}
	t.setBalance(to, t.balances[to]+amount)
	t.setSupply(t.supply + amount)
	t.journal.Emit(
		TransferEventType,
		TransferEvent{From: ledger.NullAddress, To: to, Amount: amount},
	)
	t.logger.Info("minted tokens", "to", to.String(), "amount", amount)
	return nil
}

func (t *Token) setBalance(addr ledger.Address, bal uint64) {
	prev, existed := t.balances[addr]
	t.balances[addr] = bal
	t.journal.Record(func() {
		if existed {
			t.balances[addr] = prev
		} else {
			delete(t.balances, addr)
		}
	})
	t.journal.Persist("balance:"+addr.Hex(), func(txn *database.Txn) error {
		return txn.DB().SetTokenBalance(
			&models.TokenBalance{
				Address: addr.Bytes(),
				Balance: types.Uint64(t.balances[addr]),
			},
			txn,
		)
	})
}

func (t *Token) setAllowance(key allowanceKey, amount uint64) {
	prev, existed := t.allowances[key]
	t.allowances[key] = amount
	t.journal.Record(func() {
		if existed {
			t.allowances[key] = prev
		} else {
			delete(t.allowances, key)
		}
	})
	t.journal.Persist(
		"allowance:"+key.owner.Hex()+":"+key.spender.Hex(),
		func(txn *database.Txn) error {
			return txn.DB().SetTokenAllowance(
				&models.TokenAllowance{
					Owner:   key.owner.Bytes(),
					Spender: key.spender.Bytes(),
					Amount:  types.Uint64(t.allowances[key]),
				},
				txn,
			)
		},
	)
}

func (t *Token) setSupply(supply uint64) {
	prev := t.supply
	t.supply = supply
	t.journal.Record(func() {
		t.supply = prev
	})
	t.journal.Persist("supply", func(txn *database.Txn) error {
		return txn.DB().SetTokenSupply(
			&models.TokenSupply{TotalSupply: types.Uint64(t.supply)},
			txn,
		)
	})
}

// Load replaces the in-memory balances with the ones stored in db
func (t *Token) Load(db *database.Database) error {
	txn := db.Transaction(false)
	defer txn.Release()
	balances := make(map[ledger.Address]uint64)
	allowances := make(map[allowanceKey]uint64)
	var supply uint64
	err := txn.Do(func(txn *database.Txn) error {
		balanceModels, err := db.GetTokenBalances(txn)
		if err != nil {
			return fmt.Errorf("load token balances: %w", err)
		}
		for _, m := range balanceModels {
			addr, err := ledger.NewAddress(m.Address)
			if err != nil {
				return err
			}
			balances[addr] = uint64(m.Balance)
		}
		allowanceModels, err := db.GetTokenAllowances(txn)
		if err != nil {
			return fmt.Errorf("load token allowances: %w", err)
		}
		for _, m := range allowanceModels {
			owner, err := ledger.NewAddress(m.Owner)
			if err != nil {
				return err
			}
			spender, err := ledger.NewAddress(m.Spender)
			if err != nil {
				return err
			}
			allowances[allowanceKey{owner: owner, spender: spender}] = uint64(m.Amount)
		}
		supplyModel, err := db.GetTokenSupply(txn)
		if err != nil {
			return fmt.Errorf("load token supply: %w", err)
		}
		if supplyModel != nil {
			supply = uint64(supplyModel.TotalSupply)
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.balances = balances
	t.allowances = allowances
	t.supply = supply
	t.logger.Info(
		"loaded token state",
		"holders", len(balances),
		"supply", supply,
	)
	return nil
}

