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

package api

import (
	"context"

	"github.com/blinklabs-io/polity/database"
	"github.com/blinklabs-io/polity/ledger"
	"github.com/blinklabs-io/polity/settlement"
)

// PolityNode is the interface that the API server uses to read state and
// submit operations. It decouples the HTTP server from the concrete Node
// struct and enables testing with mock implementations.
type PolityNode interface {
	Status() (StatusInfo, error)
	Account(addr ledger.Address) (AccountInfo, error)
	Allowance(owner, spender ledger.Address) (uint64, error)
	TallyEntries() ([]ledger.TallyEntry, error)
	FeeExemptions() ([]ledger.Address, error)
	Entitlement(cat ledger.FeeCategory) (uint64, error)
	History(from uint64, limit int) ([]database.OperationRecord, error)

	ChangeChoice(ctx context.Context, holder ledger.Address, choice ledger.Choice) error
	Transfer(ctx context.Context, from, to ledger.Address, amount uint64) (uint64, error)
	TransferFrom(ctx context.Context, spender, from, to ledger.Address, amount uint64) (uint64, error)
	Approve(ctx context.Context, owner, spender ledger.Address, amount uint64) error
	Restrict(ctx context.Context, caller, target ledger.Address) error
	ClaimRole(ctx context.Context, caller ledger.Address, cat ledger.Category) error
	Abdicate(ctx context.Context, caller ledger.Address) error
	SetWeight(ctx context.Context, caller ledger.Address, cat ledger.FeeCategory, weight uint64) error
	SetFeeRecipient(ctx context.Context, caller, recipient ledger.Address) error
	SetFeeExempt(ctx context.Context, caller, addr ledger.Address, exempt bool) error
	SetAutomation(ctx context.Context, caller, automation ledger.Address) error
	DepositValue(ctx context.Context, from ledger.Address, amount uint64) error
	Withdraw(ctx context.Context, caller ledger.Address, cat ledger.FeeCategory) (uint64, error)
	WithdrawAll(ctx context.Context, caller ledger.Address) ([]ledger.Payout, error)
	Sweep(ctx context.Context, caller ledger.Address) error
	Settle(ctx context.Context, caller ledger.Address) (settlement.Result, error)
}

// StatusInfo holds the node state needed by the API.
type StatusInfo struct {
	Ledger      ledger.Status
	TotalSupply uint64
	VaultTotal  uint64
	Sequence    uint64
}

// AccountInfo holds per-address data needed by the API.
type AccountInfo struct {
	Holder    ledger.Holder
	Address   ledger.Address
	Balance   uint64
	Value     uint64
	FeeExempt bool
}
