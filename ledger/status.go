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

import "time"

// Status is a snapshot of the governance and distribution state
type Status struct {
	MonarchyEnd       time.Time              `json:"monarchyEnd"`
	QuotaResetAt      time.Time              `json:"quotaResetAt"`
	Roles             map[Category]Address   `json:"roles"`
	Weights           map[FeeCategory]uint64 `json:"weights"`
	Received          map[FeeCategory]uint64 `json:"received"`
	FeeRecipient      Address                `json:"feeRecipient"`
	Automation        Address                `json:"automation"`
	WeightSum         uint64                 `json:"weightSum"`
	TotalAccrued      uint64                 `json:"totalAccrued"`
	PoolBalance       uint64                 `json:"poolBalance"`
	QuotaRemaining    uint64                 `json:"quotaRemaining"`
	RestrictedHolders int                    `json:"restrictedHolders"`
	Phase             Phase                  `json:"phase"`
	Initialized       bool                   `json:"initialized"`
}

func (ls *LedgerState) Status() Status {
	now := ls.now()
	quota, resetAt := ls.effectiveQuota(now)
	ret := Status{
		Phase:             ls.Phase(now),
		MonarchyEnd:       ls.gov.monarchyEnd,
		QuotaRemaining:    quota,
		QuotaResetAt:      resetAt,
		Roles:             make(map[Category]Address, NumBranches),
		Weights:           make(map[FeeCategory]uint64, NumFeeCategories),
		Received:          make(map[FeeCategory]uint64, NumFeeCategories),
		FeeRecipient:      ls.gov.feeRecipient,
		Automation:        ls.gov.automation,
		WeightSum:         ls.GetSumOfWeight(),
		TotalAccrued:      ls.gov.totalAccrued,
		PoolBalance:       ls.gov.poolBalance,
		RestrictedHolders: ls.RestrictedCount(),
		Initialized:       ls.gov.initialized,
	}
	for i := range NumBranches {
		ret.Roles[Category(i)] = ls.roles[i]
	}
	for i := range NumFeeCategories {
		ret.Weights[FeeCategory(i)] = ls.weights[i]
		ret.Received[FeeCategory(i)] = ls.received[i]
	}
	return ret
}
