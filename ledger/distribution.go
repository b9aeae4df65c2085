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

package ledger

import (
	"errors"
	"fmt"
)

// Payout is a single payment made by a distribution
type Payout struct {
	Category    FeeCategory `json:"category"`
	Beneficiary Address     `json:"beneficiary"`
	Amount      uint64      `json:"amount"`
}

var errNoPayer = errors.New("no payer configured")

// PoolBalance returns the native value held for distribution
func (ls *LedgerState) PoolBalance() uint64 {
	return ls.gov.poolBalance
}

// TotalAccrued returns the value accrued since the last reset
func (ls *LedgerState) TotalAccrued() uint64 {
	return ls.gov.totalAccrued
}

// Received returns the value already paid to a category since the last reset
func (ls *LedgerState) Received(cat FeeCategory) uint64 {
	if cat >= NumFeeCategories {
		return 0
	}
	return ls.received[cat]
}

// OnValueReceived credits native value to the distribution pool
func (ls *LedgerState) OnValueReceived(amount uint64) error {
	total, err := addChecked(ls.gov.totalAccrued, amount)
	if err != nil {
		return err
	}
	pool, err := addChecked(ls.gov.poolBalance, amount)
	if err != nil {
		return err
	}
	ls.updateGovernance(func(g *governance) {
		g.totalAccrued = total
		g.poolBalance = pool
	})
	ls.journal.Emit(
		ValueReceivedEventType,
		ValueReceivedEvent{
			Amount:       amount,
			TotalAccrued: total,
			PoolBalance:  pool,
		},
	)
	return nil
}

// Entitlement returns what a fee category could withdraw right now
func (ls *LedgerState) Entitlement(cat FeeCategory) (uint64, error) {
	if cat >= FeeLiquidity {
		return 0, fmt.Errorf(
			"%w: fee category %s has no withdrawal entitlement",
			ErrInvalidArgument,
			cat,
		)
	}
	return ls.entitlement(cat)
}

// entitlement is total_accrued * weight / (sum - liquidity) minus what the
// category already received, floored at zero
func (ls *LedgerState) entitlement(cat FeeCategory) (uint64, error) {
	weight := ls.weights[cat]
	if weight == 0 {
		return 0, nil
	}
	denom, err := subChecked(ls.GetSumOfWeight(), ls.weights[FeeLiquidity])
	if err != nil {
		return 0, err
	}
	share, err := mulDiv(ls.gov.totalAccrued, weight, denom)
	if err != nil {
		return 0, err
	}
	if share <= ls.received[cat] {
		return 0, nil
	}
	return share - ls.received[cat], nil
}

// Withdraw pays the caller the entitlement of the branch role it holds
func (ls *LedgerState) Withdraw(caller Address, cat FeeCategory) (uint64, error) {
	branch, ok := cat.Branch()
	if !ok {
		return 0, fmt.Errorf(
			"%w: fee category %s cannot be withdrawn",
			ErrInvalidArgument,
			cat,
		)
	}
	if caller.IsNull() || ls.roles[branch] != caller {
		return 0, fmt.Errorf(
			"%w: caller %s does not hold the %s role",
			ErrUnauthorized,
			caller,
			branch,
		)
	}
	release, err := ls.distLock.Acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	amount, err := ls.entitlement(cat)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, nil
	}
	if err := ls.payout(cat, caller, amount); err != nil {
		return 0, err
	}
	ls.logger.Info(
		"withdrawal",
		"category", cat.String(),
		"beneficiary", caller.String(),
		"amount", amount,
	)
	return amount, nil
}

// payout moves amount from the pool to the beneficiary and books it against
// the category
func (ls *LedgerState) payout(cat FeeCategory, to Address, amount uint64) error {
	if amount > ls.gov.poolBalance {
		return fmt.Errorf(
			"%w: entitlement %d exceeds pool balance %d",
			ErrInsufficientFunds,
			amount,
			ls.gov.poolBalance,
		)
	}
	received, err := addChecked(ls.received[cat], amount)
	if err != nil {
		return err
	}
	if ls.config.Payer == nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, errNoPayer)
	}
	if err := ls.config.Payer.Pay(to, amount); err != nil {
		return fmt.Errorf("pay %s: %w", to, err)
	}
	ls.setReceived(cat, received)
	ls.updateGovernance(func(g *governance) {
		g.poolBalance -= amount
	})
	ls.journal.Emit(
		WithdrawalEventType,
		WithdrawalEvent{
			Category:    cat,
			Beneficiary: to,
			Amount:      amount,
		},
	)
	return nil
}

// WithdrawAll pays every branch role holder its entitlement and then resets
// the distribution
func (ls *LedgerState) WithdrawAll(caller Address) ([]Payout, error) {
	if err := ls.requireOperator(caller); err != nil {
		return nil, err
	}
	release, err := ls.distLock.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	var payouts []Payout
	var total uint64
	for i := range NumBranches {
		cat := FeeCategory(i)
		holder := ls.roles[i]
		if holder.IsNull() {
			continue
		}
		amount, err := ls.entitlement(cat)
		if err != nil {
			return nil, err
		}
		if amount == 0 {
			continue
		}
		if total, err = addChecked(total, amount); err != nil {
			return nil, err
		}
		payouts = append(payouts, Payout{
			Category:    cat,
			Beneficiary: holder,
			Amount:      amount,
		})
	}
	if total > ls.gov.poolBalance {
		return nil, fmt.Errorf(
			"%w: entitlements %d exceed pool balance %d",
			ErrInsufficientFunds,
			total,
			ls.gov.poolBalance,
		)
	}
	for _, p := range payouts {
		if err := ls.payout(p.Category, p.Beneficiary, p.Amount); err != nil {
			return nil, err
		}
	}
	ls.reset()
	ls.logger.Info(
		"distributed all entitlements",
		"payouts", len(payouts),
		"total", total,
	)
	return payouts, nil
}

// Sweep resets the distribution, forfeiting unclaimed entitlements into the
// next period
func (ls *LedgerState) Sweep(caller Address) error {
	if err := ls.requireOperator(caller); err != nil {
		return err
	}
	release, err := ls.distLock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	ls.reset()
	return nil
}

// reset restarts accounting from the current pool balance. Callers hold the
// distribution lock
func (ls *LedgerState) reset() {
	ls.updateGovernance(func(g *governance) {
		g.totalAccrued = g.poolBalance
	})
	for i := range NumFeeCategories {
		cat := FeeCategory(i)
		if ls.received[cat] != 0 {
			ls.setReceived(cat, 0)
		}
	}
	ls.journal.Emit(
		DistributionResetEventType,
		DistributionResetEvent{TotalAccrued: ls.gov.totalAccrued},
	)
}
