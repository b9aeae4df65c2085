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
	"github.com/blinklabs-io/polity/event"
)

const (
	ChoiceChangedEventType     event.EventType = "governance.choice_changed"
	RestrictedEventType        event.EventType = "governance.restricted"
	RoleClaimedEventType       event.EventType = "governance.role_claimed"
	AbdicatedEventType         event.EventType = "governance.abdicated"
	AutomationChangedEventType event.EventType = "governance.automation_changed"
	WeightChangedEventType     event.EventType = "fees.weight_changed"
	RecipientChangedEventType  event.EventType = "fees.recipient_changed"
	ExemptionChangedEventType  event.EventType = "fees.exemption_changed"
	ValueReceivedEventType     event.EventType = "distribution.value_received"
	WithdrawalEventType        event.EventType = "distribution.withdrawal"
	DistributionResetEventType event.EventType = "distribution.reset"
	GenesisAppliedEventType    event.EventType = "governance.genesis"
)

type ChoiceChangedEvent struct {
	Holder Address `json:"holder"`
	Old    Choice  `json:"old"`
	New    Choice  `json:"new"`
	Weight uint64  `json:"weight"`
}

// RestrictedEvent is emitted when a holder is permanently removed from
// voting. QuotaConsumed is false when the restriction came from a fee
// recipient change
type RestrictedEvent struct {
	Target         Address `json:"target"`
	RemovedWeight  uint64  `json:"removedWeight"`
	QuotaRemaining uint64  `json:"quotaRemaining"`
	QuotaConsumed  bool    `json:"quotaConsumed"`
}

type RoleClaimedEvent struct {
	Category Category `json:"category"`
	Previous Address  `json:"previous"`
	Holder   Address  `json:"holder"`
	Weight   uint64   `json:"weight"`
}

type AbdicatedEvent struct {
	President Address `json:"president"`
}

type AutomationChangedEvent struct {
	Automation Address `json:"automation"`
}

type WeightChangedEvent struct {
	Category  FeeCategory `json:"category"`
	OldWeight uint64      `json:"oldWeight"`
	NewWeight uint64      `json:"newWeight"`
	Sum       uint64      `json:"sum"`
}

type RecipientChangedEvent struct {
	Previous  Address `json:"previous"`
	Recipient Address `json:"recipient"`
}

type ExemptionChangedEvent struct {
	Address Address `json:"address"`
	Exempt  bool    `json:"exempt"`
}

type ValueReceivedEvent struct {
	Amount       uint64 `json:"amount"`
	TotalAccrued uint64 `json:"totalAccrued"`
	PoolBalance  uint64 `json:"poolBalance"`
}

type WithdrawalEvent struct {
	Category    FeeCategory `json:"category"`
	Beneficiary Address     `json:"beneficiary"`
	Amount      uint64      `json:"amount"`
}

// DistributionResetEvent is emitted when every entitlement is zeroed against
// the current pool balance
type DistributionResetEvent struct {
	TotalAccrued uint64 `json:"totalAccrued"`
}

type GenesisAppliedEvent struct {
	President    Address `json:"president"`
	FeeRecipient Address `json:"feeRecipient"`
	MonarchyEnd  int64   `json:"monarchyEnd"`
}
