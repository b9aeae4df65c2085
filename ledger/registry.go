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

// HolderStatus is the lifecycle state of a holder. Restriction is final
type HolderStatus uint8

const (
	HolderActive HolderStatus = iota
	HolderRestricted
)

func (s HolderStatus) String() string {
	switch s {
	case HolderActive:
		return "active"
	case HolderRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

func (s HolderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LawChoice selects a law by reference address and index
type LawChoice struct {
	Address Address `json:"address"`
	Index   uint64  `json:"index"`
}

// Choice is the full set of selections a holder votes with
type Choice struct {
	President Address   `json:"president"`
	Senate    Address   `json:"senate"`
	Court     Address   `json:"court"`
	Treasury  Address   `json:"treasury"`
	Law       LawChoice `json:"law"`
}

// Candidate returns the tally key the choice contributes to for a category
func (c Choice) Candidate(cat Category) TallyKey {
	switch cat {
	case CategoryPresident:
		return TallyKey{Candidate: c.President, Category: cat}
	case CategorySenate:
		return TallyKey{Candidate: c.Senate, Category: cat}
	case CategoryCourt:
		return TallyKey{Candidate: c.Court, Category: cat}
	case CategoryTreasury:
		return TallyKey{Candidate: c.Treasury, Category: cat}
	default:
		return TallyKey{
			Candidate: c.Law.Address,
			Category:  CategoryLaw,
			Index:     c.Law.Index,
		}
	}
}

// Holder is the registry entry for an address
type Holder struct {
	Choice Choice       `json:"choice"`
	Status HolderStatus `json:"status"`
}

func (h Holder) Restricted() bool {
	return h.Status == HolderRestricted
}

// Holder returns the registry entry for an address. Unknown addresses are
// active with the default choice
func (ls *LedgerState) Holder(addr Address) Holder {
	return ls.holders[addr]
}

// Holders returns a copy of every registry entry that differs from the default
func (ls *LedgerState) Holders() map[Address]Holder {
	ret := make(map[Address]Holder, len(ls.holders))
	for addr, h := range ls.holders {
		ret[addr] = h
	}
	return ret
}

func (ls *LedgerState) isRestricted(addr Address) bool {
	return ls.holders[addr].Restricted()
}

// RestrictedCount returns the number of restricted holders
func (ls *LedgerState) RestrictedCount() int {
	ret := 0
	for _, h := range ls.holders {
		if h.Restricted() {
			ret++
		}
	}
	return ret
}
