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
	"context"

	"github.com/blinklabs-io/polity/ledger"
	"github.com/blinklabs-io/polity/settlement"
)

// Operation names as recorded in the operation journal
const (
	OpGenesis         = "genesis"
	OpChangeChoice    = "change_choice"
	OpTransfer        = "transfer"
	OpTransferFrom    = "transfer_from"
	OpApprove         = "approve"
	OpRestrict        = "restrict"
	OpClaimRole       = "claim_role"
	OpAbdicate        = "abdicate"
	OpSetWeight       = "set_weight"
	OpSetFeeRecipient = "set_fee_recipient"
	OpSetFeeExempt    = "set_fee_exempt"
	OpSetAutomation   = "set_automation"
	OpDepositValue    = "deposit_value"
	OpWithdraw        = "withdraw"
	OpWithdrawAll     = "withdraw_all"
	OpSweep           = "sweep"
	OpSettle          = "settle"
)

func (n *Node) ChangeChoice(
	ctx context.Context,
	holder ledger.Address,
	choice ledger.Choice,
) error {
	return n.execute(
		ctx,
		OpChangeChoice,
		holder,
		choice,
		func(context.Context) (any, error) {
			return nil, n.ledgerState.ChangeChoice(holder, choice)
		},
	)
}

// Transfer moves tokens and returns the fee that went to the fee recipient
func (n *Node) Transfer(
	ctx context.Context,
	from, to ledger.Address,
	amount uint64,
) (uint64, error) {
	var fee uint64
	err := n.execute(
		ctx,
		OpTransfer,
		from,
		map[string]any{"to": to, "amount": amount},
		func(context.Context) (any, error) {
			var err error
			fee, err = n.token.Transfer(from, to, amount)
			return map[string]uint64{"fee": fee}, err
		},
	)
	if err != nil {
		return 0, err
	}
	return fee, nil
}

func (n *Node) TransferFrom(
	ctx context.Context,
	spender, from, to ledger.Address,
	amount uint64,
) (uint64, error) {
	var fee uint64
	err := n.execute(
		ctx,
		OpTransferFrom,
		spender,
		map[string]any{"from": from, "to": to, "amount": amount},
		func(context.Context) (any, error) {
			var err error
			fee, err = n.token.TransferFrom(spender, from, to, amount)
			return map[string]uint64{"fee": fee}, err
		},
	)
	if err != nil {
		return 0, err
	}
	return fee, nil
}

func (n *Node) Approve(
	ctx context.Context,
	owner, spender ledger.Address,
	amount uint64,
) error {
	return n.execute(
		ctx,
		OpApprove,
		owner,
		map[string]any{"spender": spender, "amount": amount},
		func(context.Context) (any, error) {
			return nil, n.token.Approve(owner, spender, amount)
		},
	)
}

func (n *Node) Restrict(ctx context.Context, caller, target ledger.Address) error {
	return n.execute(
		ctx,
		OpRestrict,
		caller,
		map[string]any{"target": target},
		func(context.Context) (any, error) {
			return nil, n.ledgerState.Restrict(caller, target)
		},
	)
}

func (n *Node) ClaimRole(
	ctx context.Context,
	caller ledger.Address,
	cat ledger.Category,
) error {
	return n.execute(
		ctx,
		OpClaimRole,
		caller,
		map[string]any{"category": cat},
		func(context.Context) (any, error) {
			return nil, n.ledgerState.ClaimRole(caller, cat)
		},
	)
}

func (n *Node) Abdicate(ctx context.Context, caller ledger.Address) error {
	return n.execute(
		ctx,
		OpAbdicate,
		caller,
		nil,
		func(context.Context) (any, error) {
			return nil, n.ledgerState.Abdicate(caller)
		},
	)
}

func (n *Node) SetWeight(
	ctx context.Context,
	caller ledger.Address,
	cat ledger.FeeCategory,
	weight uint64,
) error {
	return n.execute(
		ctx,
		OpSetWeight,
		caller,
		map[string]any{"category": cat, "weight": weight},
		func(context.Context) (any, error) {
			return nil, n.ledgerState.SetWeight(caller, cat, weight)
		},
	)
}

func (n *Node) SetFeeRecipient(
	ctx context.Context,
	caller, recipient ledger.Address,
) error {
	return n.execute(
		ctx,
		OpSetFeeRecipient,
		caller,
		map[string]any{"recipient": recipient},
		func(context.Context) (any, error) {
			return nil, n.ledgerState.SetFeeRecipient(caller, recipient)
		},
	)
}

func (n *Node) SetFeeExempt(
	ctx context.Context,
	caller, addr ledger.Address,
	exempt bool,
) error {
	return n.execute(
		ctx,
		OpSetFeeExempt,
		caller,
		map[string]any{"address": addr, "exempt": exempt},
		func(context.Context) (any, error) {
			return nil, n.ledgerState.SetFeeExempt(caller, addr, exempt)
		},
	)
}

func (n *Node) SetAutomation(
	ctx context.Context,
	caller, automation ledger.Address,
) error {
	return n.execute(
		ctx,
		OpSetAutomation,
		caller,
		map[string]any{"automation": automation},
		func(context.Context) (any, error) {
			return nil, n.ledgerState.SetAutomation(caller, automation)
		},
	)
}

// DepositValue credits native value sent by any address to the
// distribution pool
func (n *Node) DepositValue(
	ctx context.Context,
	from ledger.Address,
	amount uint64,
) error {
	return n.execute(
		ctx,
		OpDepositValue,
		from,
		map[string]any{"amount": amount},
		func(context.Context) (any, error) {
			return nil, n.ledgerState.OnValueReceived(amount)
		},
	)
}

// Withdraw pays the caller's branch entitlement for cat and returns the
// amount paid
func (n *Node) Withdraw(
	ctx context.Context,
	caller ledger.Address,
	cat ledger.FeeCategory,
) (uint64, error) {
	var amount uint64
	err := n.execute(
		ctx,
		OpWithdraw,
		caller,
		map[string]any{"category": cat},
		func(context.Context) (any, error) {
			var err error
			amount, err = n.ledgerState.Withdraw(caller, cat)
			return map[string]uint64{"amount": amount}, err
		},
	)
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (n *Node) WithdrawAll(
	ctx context.Context,
	caller ledger.Address,
) ([]ledger.Payout, error) {
	var payouts []ledger.Payout
	err := n.execute(
		ctx,
		OpWithdrawAll,
		caller,
		nil,
		func(context.Context) (any, error) {
			var err error
			payouts, err = n.ledgerState.WithdrawAll(caller)
			return payouts, err
		},
	)
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (n *Node) Sweep(ctx context.Context, caller ledger.Address) error {
	return n.execute(
		ctx,
		OpSweep,
		caller,
		nil,
		func(context.Context) (any, error) {
			return nil, n.ledgerState.Sweep(caller)
		},
	)
}

// Settle converts the fee recipient's collected tokens into liquidity and
// distribution pool value
func (n *Node) Settle(
	ctx context.Context,
	caller ledger.Address,
) (settlement.Result, error) {
	if n.settler == nil {
		return settlement.Result{}, ErrSettlementDisabled
	}
	var res settlement.Result
	err := n.execute(
		ctx,
		OpSettle,
		caller,
		nil,
		func(ctx context.Context) (any, error) {
			var err error
			res, err = n.settler.Settle(ctx, caller)
			return res, err
		},
	)
	if err != nil {
		return settlement.Result{}, err
	}
	return res, nil
}
