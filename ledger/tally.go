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

// TallyKey identifies a candidate within a category. Index is only used by
// the law category
type TallyKey struct {
	Candidate Address  `json:"candidate"`
	Category  Category `json:"category"`
	Index     uint64   `json:"index"`
}

func (k TallyKey) String() string {
	if k.Category == CategoryLaw {
		return fmt.Sprintf("%s/%s/%d", k.Category, k.Candidate, k.Index)
	}
	return fmt.Sprintf("%s/%s", k.Category, k.Candidate)
}

// TallyEntry is a single tally key with its weight
type TallyEntry struct {
	TallyKey
	Weight uint64 `json:"weight"`
}

// Tally returns the accumulated weight for a key
func (ls *LedgerState) Tally(key TallyKey) uint64 {
	return ls.tally[key]
}

// TallyEntries returns every tally entry ordered by category, index and
// candidate
func (ls *LedgerState) TallyEntries() []TallyEntry {
	keys := slices.Collect(maps.Keys(ls.tally))
	slices.SortFunc(keys, func(a, b TallyKey) int {
		if a.Category != b.Category {
			return int(a.Category) - int(b.Category)
		}
		if a.Index != b.Index {
			if a.Index < b.Index {
				return -1
			}
			return 1
		}
		return slices.Compare(a.Candidate[:], b.Candidate[:])
	})
	ret := make([]TallyEntry, 0, len(keys))
	for _, key := range keys {
		ret = append(ret, TallyEntry{TallyKey: key, Weight: ls.tally[key]})
	}
	return ret
}

// CategoryTotal returns the sum of all tally weights in a category
func (ls *LedgerState) CategoryTotal(cat Category) (uint64, error) {
	var ret uint64
	for key, weight := range ls.tally {
		if key.Category != cat {
			continue
		}
		var err error
		ret, err = addChecked(ret, weight)
		if err != nil {
			return 0, err
		}
	}
	return ret, nil
}

// tallyBatch stages tally changes so that a multi-key update either applies
// completely or not at all
type tallyBatch struct {
	ls      *LedgerState
	pending map[TallyKey]uint64
}

func (ls *LedgerState) newTallyBatch() *tallyBatch {
	return &tallyBatch{
		ls:      ls,
		pending: make(map[TallyKey]uint64),
	}
}

func (b *tallyBatch) get(key TallyKey) uint64 {
	if v, ok := b.pending[key]; ok {
		return v
	}
	return b.ls.tally[key]
}

func (b *tallyBatch) sub(key TallyKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	v, err := subChecked(b.get(key), amount)
	if err != nil {
		return fmt.Errorf("tally %s: %w", key, err)
	}
	b.pending[key] = v
	return nil
}

func (b *tallyBatch) add(key TallyKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	v, err := addChecked(b.get(key), amount)
	if err != nil {
		return fmt.Errorf("tally %s: %w", key, err)
	}
	b.pending[key] = v
	return nil
}

// subChoice removes amount from every key the choice contributes to
func (b *tallyBatch) subChoice(c Choice, amount uint64) error {
	for _, cat := range AllCategories() {
		if err := b.sub(c.Candidate(cat), amount); err != nil {
			return err
		}
	}
	return nil
}

// addChoice adds amount to every key the choice contributes to
func (b *tallyBatch) addChoice(c Choice, amount uint64) error {
	for _, cat := range AllCategories() {
		if err := b.add(c.Candidate(cat), amount); err != nil {
			return err
		}
	}
	return nil
}

func (b *tallyBatch) commit() {
	for key, weight := range b.pending {
		b.ls.setTally(key, weight)
	}
	clear(b.pending)
}
