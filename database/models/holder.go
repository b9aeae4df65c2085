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

// Holder is the choice tuple and status of a single token holder
type Holder struct {
	Address    []byte `gorm:"uniqueIndex;size:20"`
	President  []byte `gorm:"size:20"`
	Senate     []byte `gorm:"size:20"`
	Court      []byte `gorm:"size:20"`
	Treasury   []byte `gorm:"size:20"`
	LawAddress []byte `gorm:"size:20"`
	ID         uint   `gorm:"primarykey"`
	LawIndex   types.Uint64
	Status     uint8
}

func (Holder) TableName() string {
	return "holder"
}

// TallyEntry is the accumulated weight for a (candidate, category, index) key
type TallyEntry struct {
	Candidate []byte       `gorm:"uniqueIndex:idx_tally_key;size:20"`
	ID        uint         `gorm:"primarykey"`
	LawIndex  types.Uint64 `gorm:"uniqueIndex:idx_tally_key"`
	Weight    types.Uint64
	Category  uint8 `gorm:"uniqueIndex:idx_tally_key"`
}

func (TallyEntry) TableName() string {
	return "tally_entry"
}

// Role records the current holder of a governance branch role
type Role struct {
	Holder   []byte `gorm:"size:20"`
	ID       uint   `gorm:"primarykey"`
	Category uint8  `gorm:"uniqueIndex"`
}

func (Role) TableName() string {
	return "role"
}
