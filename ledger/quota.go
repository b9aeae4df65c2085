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

// effectiveQuota returns the quota and reset time as of now, applying the
// rolling window without modifying state
func (ls *LedgerState) effectiveQuota(now time.Time) (uint64, time.Time) {
	if now.After(ls.gov.quotaResetAt) {
		return ls.config.Params.RestrictionQuota, now.Add(ls.config.Params.RestrictionWindow)
	}
	return ls.gov.quota, ls.gov.quotaResetAt
}

// Quota returns the restrictions left in the current window and the time the
// window resets
func (ls *LedgerState) Quota() (uint64, time.Time) {
	return ls.effectiveQuota(ls.now())
}

// Restrict permanently removes a holder from voting. It consumes one unit of
// the president's restriction quota
func (ls *LedgerState) Restrict(caller Address, target Address) error {
	if err := ls.requirePresident(caller); err != nil {
		return err
	}
	if target.IsNull() {
		return fmt.Errorf("%w: null target", ErrInvalidArgument)
	}
	quota, resetAt := ls.effectiveQuota(ls.now())
	if quota == 0 {
		return fmt.Errorf(
			"%w: restriction quota exhausted until %s",
			ErrLimitExceeded,
			resetAt.UTC().Format(time.RFC3339),
		)
	}
	if ls.isRestricted(target) {
		return fmt.Errorf("%w: holder %s is already restricted", ErrInvalidState, target)
	}
	removed, err := ls.restrict(target)
	if err != nil {
		return err
	}
	ls.updateGovernance(func(g *governance) {
		g.quota = quota - 1
		g.quotaResetAt = resetAt
	})
	ls.journal.Emit(
		RestrictedEventType,
		RestrictedEvent{
			Target:         target,
			RemovedWeight:  removed,
			QuotaRemaining: quota - 1,
			QuotaConsumed:  true,
		},
	)
	ls.logger.Info(
		"holder restricted",
		"target", target.String(),
		"removed_weight", removed,
		"quota_remaining", quota-1,
	)
	return nil
}

// restrict removes the target's weight from its current choice, clears the
// choice and marks the holder restricted. It returns the removed weight
func (ls *LedgerState) restrict(target Address) (uint64, error) {
	release, err := ls.voteLocks.Acquire(target)
	if err != nil {
		return 0, err
	}
	defer release()
	h := ls.holders[target]
	weight := ls.balanceOf(target)
	batch := ls.newTallyBatch()
	if err := batch.subChoice(h.Choice, weight); err != nil {
		return 0, err
	}
	batch.commit()
	ls.setHolder(target, Holder{Status: HolderRestricted})
	return weight, nil
}
