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
	"github.com/blinklabs-io/polity/ledger"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// OkResponse is returned by operations without a result.
type OkResponse struct {
	Ok bool `json:"ok"`
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Roles             map[string]string `json:"roles"`
	Weights           map[string]uint64 `json:"weights"`
	Received          map[string]uint64 `json:"received"`
	Phase             string            `json:"phase"`
	FeeRecipient      string            `json:"fee_recipient"`
	Automation        string            `json:"automation"`
	MonarchyEnd       int64             `json:"monarchy_end"`
	QuotaResetAt      int64             `json:"quota_reset_at"`
	QuotaRemaining    uint64            `json:"quota_remaining"`
	WeightSum         uint64            `json:"weight_sum"`
	TotalAccrued      uint64            `json:"total_accrued"`
	PoolBalance       uint64            `json:"pool_balance"`
	TotalSupply       uint64            `json:"total_supply"`
	VaultTotal        uint64            `json:"vault_total"`
	Sequence          uint64            `json:"sequence"`
	RestrictedHolders int               `json:"restricted_holders"`
	Initialized       bool              `json:"initialized"`
}

// AccountResponse is returned by GET /api/v1/accounts/{address}.
type AccountResponse struct {
	Choice    ledger.Choice `json:"choice"`
	Address   string        `json:"address"`
	Status    string        `json:"status"`
	Balance   uint64        `json:"balance"`
	Value     uint64        `json:"value"`
	FeeExempt bool          `json:"fee_exempt"`
}

// AllowanceResponse is returned by
// GET /api/v1/accounts/{owner}/allowances/{spender}.
type AllowanceResponse struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

// TallyEntryResponse is one element of GET /api/v1/tally.
type TallyEntryResponse struct {
	Candidate string `json:"candidate"`
	Category  string `json:"category"`
	Index     uint64 `json:"index"`
	Weight    uint64 `json:"weight"`
}

// EntitlementResponse is returned by
// GET /api/v1/fees/entitlements/{category}.
type EntitlementResponse struct {
	Category string `json:"category"`
	Amount   uint64 `json:"amount"`
}

// FeeResponse is returned by the transfer endpoints.
type FeeResponse struct {
	Fee uint64 `json:"fee"`
}

// AmountResponse is returned by a single withdrawal.
type AmountResponse struct {
	Amount uint64 `json:"amount"`
}

// PayoutResponse is one element of a withdraw-all response.
type PayoutResponse struct {
	Category    string `json:"category"`
	Beneficiary string `json:"beneficiary"`
	Amount      uint64 `json:"amount"`
}

// CallerRequest is the body of operations that only need the caller.
type CallerRequest struct {
	Caller ledger.Address `json:"caller"`
}

type ChoiceRequest struct {
	Choice ledger.Choice  `json:"choice"`
	Caller ledger.Address `json:"caller"`
}

type TransferRequest struct {
	Caller ledger.Address `json:"caller"`
	To     ledger.Address `json:"to"`
	Amount uint64         `json:"amount"`
}

type TransferFromRequest struct {
	Caller ledger.Address `json:"caller"`
	From   ledger.Address `json:"from"`
	To     ledger.Address `json:"to"`
	Amount uint64         `json:"amount"`
}

type ApproveRequest struct {
	Caller  ledger.Address `json:"caller"`
	Spender ledger.Address `json:"spender"`
	Amount  uint64         `json:"amount"`
}

type RestrictRequest struct {
	Caller ledger.Address `json:"caller"`
	Target ledger.Address `json:"target"`
}

type WeightRequest struct {
	Caller ledger.Address `json:"caller"`
	Weight uint64         `json:"weight"`
}

type RecipientRequest struct {
	Caller    ledger.Address `json:"caller"`
	Recipient ledger.Address `json:"recipient"`
}

type ExemptionRequest struct {
	Caller  ledger.Address `json:"caller"`
	Address ledger.Address `json:"address"`
	Exempt  bool           `json:"exempt"`
}

type AutomationRequest struct {
	Caller     ledger.Address `json:"caller"`
	Automation ledger.Address `json:"automation"`
}

type DepositRequest struct {
	Caller ledger.Address `json:"caller"`
	Amount uint64         `json:"amount"`
}
