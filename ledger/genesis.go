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

// Genesis is the initial governance configuration of a ledger
type Genesis struct {
	MonarchyEnd  time.Time
	President    Address
	Automation   Address
	FeeRecipient Address
	Weights      [NumFeeCategories]uint64
}

// ApplyGenesis initializes an empty ledger. The president role is assigned
// directly and the other branches start vacant
func (ls *LedgerState) ApplyGenesis(g Genesis) error {
	if ls.gov.initialized {
		return fmt.Errorf("%w: genesis already applied", ErrInvalidState)
	}
	if g.President.IsNull() {
		return fmt.Errorf("%w: genesis president is the null address", ErrInvalidArgument)
	}
	if _, err := ls.checkSchedule(g.Weights); err != nil {
		return fmt.Errorf("genesis fee weights: %w", err)
	}
	now := ls.now()
	ls.setRole(CategoryPresident, g.President)
	ls.updateGovernance(func(gov *governance) {
		gov.initialized = true
		gov.monarchyEnd = g.MonarchyEnd
		gov.automation = g.Automation
		gov.quota = ls.config.Params.RestrictionQuota
		gov.quotaResetAt = now.Add(ls.config.Params.RestrictionWindow)
	})
	for i, w := range g.Weights {
		ls.setWeight(FeeCategory(i), w)
	}
	if !g.FeeRecipient.IsNull() {
		if err := ls.installFeeRecipient(g.FeeRecipient); err != nil {
			return err
		}
	}
	ls.journal.Emit(
		GenesisAppliedEventType,
		GenesisAppliedEvent{
			President:    g.President,
			FeeRecipient: g.FeeRecipient,
			MonarchyEnd:  g.MonarchyEnd.UnixMilli(),
		},
	)
	ls.logger.Info(
		"applied genesis",
		"president", g.President.String(),
		"fee_recipient", g.FeeRecipient.String(),
		"monarchy_end", g.MonarchyEnd.UTC().Format(time.RFC3339),
	)
	return nil
}
