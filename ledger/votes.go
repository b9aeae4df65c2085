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
	"time"
)

// Phase is the constitutional phase of the ledger. The only transition is
// from monarchy to republic
type Phase uint8

const (
	PhaseMonarchy Phase = iota
	PhaseRepublic
)

func (p Phase) String() string {
	if p == PhaseMonarchy {
		return "monarchy"
	}
	return "republic"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Phase returns the phase at the given time
func (ls *LedgerState) Phase(now time.Time) Phase {
	if !ls.gov.abdicated && now.Before(ls.gov.monarchyEnd) {
		return PhaseMonarchy
	}
	return PhaseRepublic
}

// MonarchyEnd returns the time the monarchy ends or ended
func (ls *LedgerState) MonarchyEnd() time.Time {
	return ls.gov.monarchyEnd
}

// ChangeChoice moves the holder's full balance from its current choice to
// the new one in every category
func (ls *LedgerState) ChangeChoice(holder Address, choice Choice) error {
	if holder.IsNull() {
		return fmt.Errorf("%w: null holder", ErrInvalidArgument)
	}
	h := ls.holders[holder]
	if h.Restricted() {
		return fmt.Errorf("%w: holder %s is restricted", ErrInvalidState, holder)
	}
	release, err := ls.voteLocks.Acquire(holder)
	if err != nil {
		return err
	}
	defer release()
	weight := ls.balanceOf(holder)
	batch := ls.newTallyBatch()
	if err := batch.subChoice(h.Choice, weight); err != nil {
		return err
	}
	if err := batch.addChoice(choice, weight); err != nil {
		return err
	}
	batch.commit()
	ls.setHolder(holder, Holder{Choice: choice, Status: HolderActive})
	ls.journal.Emit(
		ChoiceChangedEventType,
		ChoiceChangedEvent{
			Holder: holder,
			Old:    h.Choice,
			New:    choice,
			Weight: weight,
		},
	)
	ls.logger.Debug(
		"holder changed choice",
		"holder", holder.String(),
		"weight", weight,
	)
	return nil
}

// TransferVote moves voting weight along with a token balance movement. It
// must be called once per movement, after the balance check and before the
// balances change. The full amount leaves the sender's keys and amount-fee
// reaches the receiver's keys. Null and restricted parties carry no weight,
// which makes a null sender a mint and a null receiver a burn
func (ls *LedgerState) TransferVote(from, to Address, amount, fee uint64) error {
	if fee > amount {
		return fmt.Errorf(
			"%w: fee %d exceeds amount %d",
			ErrInvalidArgument,
			fee,
			amount,
		)
	}
	fromHolder := ls.holders[from]
	toHolder := ls.holders[to]
	fromVotes := !from.IsNull() && !fromHolder.Restricted()
	toVotes := !to.IsNull() && !toHolder.Restricted()
	locks := make([]Address, 0, 2)
	if fromVotes {
		locks = append(locks, from)
	}
	if toVotes {
		locks = append(locks, to)
	}
	release, err := ls.voteLocks.Acquire(locks...)
	if err != nil {
		return err
	}
	defer release()
	batch := ls.newTallyBatch()
	if fromVotes {
		if err := batch.subChoice(fromHolder.Choice, amount); err != nil {
			return err
		}
	}
	if toVotes {
		if err := batch.addChoice(toHolder.Choice, amount-fee); err != nil {
			return err
		}
	}
	batch.commit()
	return nil
}

// RoleHolder returns the address holding a branch role
func (ls *LedgerState) RoleHolder(cat Category) (Address, error) {
	if !cat.IsBranch() {
		return NullAddress, fmt.Errorf("%w: %s is not a branch", ErrInvalidArgument, cat)
	}
	return ls.roles[cat], nil
}

// Roles returns the holder of every branch role
func (ls *LedgerState) Roles() [NumBranches]Address {
	return ls.roles
}

// ClaimRole gives a branch role to the caller when the caller's tally in
// that branch strictly exceeds the incumbent's
func (ls *LedgerState) ClaimRole(caller Address, cat Category) error {
	if !cat.IsBranch() {
		return fmt.Errorf("%w: %s is not a branch", ErrInvalidArgument, cat)
	}
	if caller.IsNull() {
		return fmt.Errorf("%w: null caller", ErrInvalidArgument)
	}
	if cat == CategoryPresident && ls.Phase(ls.now()) == PhaseMonarchy {
		return fmt.Errorf("%w: the presidency cannot be claimed during the monarchy", ErrInvalidState)
	}
	incumbent := ls.roles[cat]
	if incumbent == caller {
		return nil
	}
	challengerWeight := ls.tally[TallyKey{Candidate: caller, Category: cat}]
	var incumbentWeight uint64
	if !incumbent.IsNull() {
		incumbentWeight = ls.tally[TallyKey{Candidate: incumbent, Category: cat}]
	}
	if challengerWeight <= incumbentWeight {
		return fmt.Errorf(
			"%w: %s tally %d does not exceed incumbent tally %d",
			ErrInvalidState,
			cat,
			challengerWeight,
			incumbentWeight,
		)
	}
	ls.setRole(cat, caller)
	ls.journal.Emit(
		RoleClaimedEventType,
		RoleClaimedEvent{
			Category: cat,
			Previous: incumbent,
			Holder:   caller,
			Weight:   challengerWeight,
		},
	)
	ls.logger.Info(
		"role claimed",
		"category", cat.String(),
		"holder", caller.String(),
		"weight", challengerWeight,
	)
	return nil
}

// Abdicate ends the monarchy early
func (ls *LedgerState) Abdicate(caller Address) error {
	if err := ls.requirePresident(caller); err != nil {
		return err
	}
	now := ls.now()
	if ls.Phase(now) != PhaseMonarchy {
		return fmt.Errorf("%w: the monarchy has already ended", ErrInvalidState)
	}
	ls.updateGovernance(func(g *governance) {
		g.abdicated = true
		g.monarchyEnd = now
	})
	ls.journal.Emit(AbdicatedEventType, AbdicatedEvent{President: caller})
	ls.logger.Info("president abdicated", "president", caller.String())
	return nil
}
