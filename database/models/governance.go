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

package models

import "github.com/blinklabs-io/polity/database/types"

// GovernanceStateID is the primary key of the singleton governance state row
const GovernanceStateID = 1

// GovernanceState holds the process-wide governance and distribution values
type GovernanceState struct {
	Automation     []byte `gorm:"size:20"`
	FeeRecipient   []byte `gorm:"size:20"`
	ID             uint   `gorm:"primarykey"`
	MonarchyEnd    int64
	QuotaResetAt   int64
	QuotaRemaining types.Uint64
	TotalAccrued   types.Uint64
	PoolBalance    types.Uint64
	Abdicated      bool
}

func (GovernanceState) TableName() string {
	return "governance_state"
}

// FeeCategory holds the configured weight and the amount already withdrawn
// for one fee category
type FeeCategory struct {
	ID       uint `gorm:"primarykey"`
	Weight   types.Uint64
	Received types.Uint64
	Category uint8 `gorm:"uniqueIndex"`
}

func (FeeCategory) TableName() string {
	return "fee_category"
}

// FeeExemption marks an address as exempt from transfer fees
type FeeExemption struct {
	Address []byte `gorm:"uniqueIndex;size:20"`
	ID      uint   `gorm:"primarykey"`
	Exempt  bool
}

func (FeeExemption) TableName() string {
	return "fee_exemption"
}
