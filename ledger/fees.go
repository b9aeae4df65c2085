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
	"fmt"
	"maps"
	"slices"
)

// GetWeight returns the fee weight of a category in percent
func (ls *LedgerState) GetWeight(cat FeeCategory) uint64 {
	if cat >= NumFeeCategories {
		return 0
	}
	return ls.weights[cat]
}

// GetSumOfWeight returns the sum of all fee weights in percent
func (ls *LedgerState) GetSumOfWeight() uint64 {
	var ret uint64
	for _, w := range ls.weights {
		ret += w
	}
	return ret
}

// Weights returns the full fee schedule
func (ls *LedgerState) Weights() [NumFeeCategories]uint64 {
	return ls.weights
}

// checkSchedule validates a complete fee schedule against the cap. A schedule
// made only of liquidity weight would leave withdrawals without a denominator
func (ls *LedgerState) checkSchedule(weights [NumFeeCategories]uint64) (uint64, error) {
	var sum uint64
	for _, w := range weights {
		var err error
		if sum, err = addChecked(sum, w); err != nil {
			return 0, err
		}
	}
	if sum > ls.config.Params.MaxFeeSum {
		return 0, fmt.Errorf(
			"%w: fee sum %d exceeds %d",
			ErrLimitExceeded,
			sum,
			ls.config.Params.MaxFeeSum,
		)
	}
	if sum > 0 && sum == weights[FeeLiquidity] {
		return 0, fmt.Errorf(
			"%w: fee schedule must not consist of liquidity weight only",
			ErrInvalidArgument,
		)
	}
	return sum, nil
}

// SetWeight replaces the weight of one fee category and resets the
// distribution
func (ls *LedgerState) SetWeight(caller Address, cat FeeCategory, weight uint64) error {
	if err := ls.requirePresident(caller); err != nil {
		return err
	}
	if cat >= NumFeeCategories {
		return fmt.Errorf("%w: fee category %d", ErrInvalidArgument, cat)
	}
	schedule := ls.weights
	old := schedule[cat]
	schedule[cat] = weight
	sum, err := ls.checkSchedule(schedule)
	if err != nil {
		return err
	}
	release, err := ls.distLock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	ls.setWeight(cat, weight)
	ls.reset()
	ls.journal.Emit(
		WeightChangedEventType,
		WeightChangedEvent{
			Category:  cat,
			OldWeight: old,
			NewWeight: weight,
			Sum:       sum,
		},
	)
	ls.logger.Info(
		"fee weight changed",
		"category", cat.String(),
		"old", old,
		"new", weight,
		"sum", sum,
	)
	return nil
}

// FeeRecipient returns the address fees are credited to
func (ls *LedgerState) FeeRecipient() Address {
	return ls.gov.feeRecipient
}

// SetFeeRecipient moves fee collection to a new address. The new recipient
// is exempted from fees and restricted from voting. Once the republic has
// started the recipient can no longer be replaced
func (ls *LedgerState) SetFeeRecipient(caller Address, addr Address) error {
	if err := ls.requirePresident(caller); err != nil {
		return err
	}
	if addr.IsNull() {
		return fmt.Errorf("%w: null fee recipient", ErrInvalidArgument)
	}
	prev := ls.gov.feeRecipient
	if ls.Phase(ls.now()) == PhaseRepublic && !prev.IsNull() {
		return fmt.Errorf("%w: fee recipient is fixed in the republic", ErrInvalidState)
	}
	if err := ls.installFeeRecipient(addr); err != nil {
		return err
	}
	ls.journal.Emit(
		RecipientChangedEventType,
		RecipientChangedEvent{Previous: prev, Recipient: addr},
	)
	ls.logger.Info(
		"fee recipient changed",
		"previous", prev.String(),
		"recipient", addr.String(),
	)
	return nil
}

func (ls *LedgerState) installFeeRecipient(addr Address) error {
	prev := ls.gov.feeRecipient
	if !ls.isRestricted(addr) {
		removed, err := ls.restrict(addr)
		if err != nil {
			return err
		}
		ls.journal.Emit(
			RestrictedEventType,
			RestrictedEvent{
				Target:         addr,
				RemovedWeight:  removed,
				QuotaRemaining: ls.gov.quota,
			},
		)
	}
	if !prev.IsNull() && prev != addr {
		ls.setExempt(prev, false)
		ls.journal.Emit(
			ExemptionChangedEventType,
			ExemptionChangedEvent{Address: prev, Exempt: false},
		)
	}
	if !ls.IsFeeExempt(addr) {
		ls.setExempt(addr, true)
		ls.journal.Emit(
			ExemptionChangedEventType,
			ExemptionChangedEvent{Address: addr, Exempt: true},
		)
	}
	ls.updateGovernance(func(g *governance) {
		g.feeRecipient = addr
	})
	return nil
}

// IsFeeExempt reports whether transfers from or to addr are free of fees
func (ls *LedgerState) IsFeeExempt(addr Address) bool {
	_, ok := ls.exempt[addr]
	return ok
}

// FeeExemptions returns every exempt address
func (ls *LedgerState) FeeExemptions() []Address {
	ret := slices.Collect(maps.Keys(ls.exempt))
	slices.SortFunc(ret, func(a, b Address) int {
		return slices.Compare(a[:], b[:])
	})
	return ret
}

// SetFeeExempt adds or removes a fee exemption. The fee recipient always
// stays exempt
func (ls *LedgerState) SetFeeExempt(caller Address, addr Address, exempt bool) error {
	if err := ls.requirePresident(caller); err != nil {
		return err
	}
	if addr.IsNull() {
		return fmt.Errorf("%w: null address", ErrInvalidArgument)
	}
	if !exempt && addr == ls.gov.feeRecipient {
		return fmt.Errorf("%w: the fee recipient must stay exempt", ErrInvalidState)
	}
	if ls.IsFeeExempt(addr) == exempt {
		return nil
	}
	ls.setExempt(addr, exempt)
	ls.journal.Emit(
		ExemptionChangedEventType,
		ExemptionChangedEvent{Address: addr, Exempt: exempt},
	)
	return nil
}

// ComputeFee returns the fee skimmed from a transfer of amount between from
// and to. It has no side effects
func (ls *LedgerState) ComputeFee(from, to Address, amount uint64) uint64 {
	if ls.gov.feeRecipient.IsNull() || ls.IsFeeExempt(from) || ls.IsFeeExempt(to) {
		return 0
	}
	// The sum is capped at 100 so the fee never exceeds amount
	fee, err := mulDiv(amount, ls.GetSumOfWeight(), 100)
	if err != nil {
		return 0
	}
	return fee
}
