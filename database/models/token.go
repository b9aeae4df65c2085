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

// TokenSupplyID is the primary key of the singleton token supply row
const TokenSupplyID = 1

type TokenBalance struct {
	Address []byte `gorm:"uniqueIndex;size:20"`
	ID      uint   `gorm:"primarykey"`
	Balance types.Uint64
}

func (TokenBalance) TableName() string {
	return "token_balance"
}

type TokenAllowance struct {
	Owner   []byte `gorm:"uniqueIndex:idx_allowance_owner_spender;size:20"`
	Spender []byte `gorm:"uniqueIndex:idx_allowance_owner_spender;size:20"`
	ID      uint   `gorm:"primarykey"`
	Amount  types.Uint64
}

func (TokenAllowance) TableName() string {
	return "token_allowance"
}

type TokenSupply struct {
	ID          uint `gorm:"primarykey"`
	TotalSupply types.Uint64
}

func (TokenSupply) TableName() string {
	return "token_supply"
}

// ValueAccount is the native value balance credited to an address by
// fee withdrawals
type ValueAccount struct {
	Address []byte `gorm:"uniqueIndex;size:20"`
	ID      uint   `gorm:"primarykey"`
	Balance types.Uint64
}

func (ValueAccount) TableName() string {
	return "value_account"
}
