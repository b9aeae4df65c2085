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
	"strconv"
	"time"

	"github.com/blinklabs-io/polity/database"
	"github.com/blinklabs-io/polity/database/models"
	"github.com/blinklabs-io/polity/database/types"
)

// The setters below are the only place ledger state is mutated. Each one
// records an undo step and a keyed database write with the journal

func (ls *LedgerState) setHolder(addr Address, h Holder) {
	prev, existed := ls.holders[addr]
	ls.holders[addr] = h
	ls.journal.Record(func() {
		if existed {
			ls.holders[addr] = prev
		} else {
			delete(ls.holders, addr)
		}
	})
	ls.journal.Persist("holder:"+addr.Hex(), func(txn *database.Txn) error {
		return txn.DB().SetHolder(holderModel(addr, ls.holders[addr]), txn)
	})
}

func (ls *LedgerState) setTally(key TallyKey, weight uint64) {
	prev, existed := ls.tally[key]
	ls.tally[key] = weight
	ls.journal.Record(func() {
		if existed {
			ls.tally[key] = prev
		} else {
			delete(ls.tally, key)
		}
	})
	ls.journal.Persist(
		"tally:"+key.Candidate.Hex()+":"+key.Category.String()+":"+strconv.FormatUint(key.Index, 10),
		func(txn *database.Txn) error {
			return txn.DB().SetTallyEntry(
				&models.TallyEntry{
					Candidate: key.Candidate.Bytes(),
					Category:  uint8(key.Category),
					LawIndex:  types.Uint64(key.Index),
					Weight:    types.Uint64(ls.tally[key]),
				},
				txn,
			)
		},
	)
}

func (ls *LedgerState) setRole(cat Category, addr Address) {
	prev := ls.roles[cat]
	ls.roles[cat] = addr
	ls.journal.Record(func() {
		ls.roles[cat] = prev
	})
	ls.journal.Persist("role:"+cat.String(), func(txn *database.Txn) error {
		return txn.DB().SetRole(
			&models.Role{
				Category: uint8(cat),
				Holder:   ls.roles[cat].Bytes(),
			},
			txn,
		)
	})
}

func (ls *LedgerState) setWeight(cat FeeCategory, weight uint64) {
	prev := ls.weights[cat]
	ls.weights[cat] = weight
	ls.journal.Record(func() {
		ls.weights[cat] = prev
	})
	ls.persistFeeCategory(cat)
}

func (ls *LedgerState) setReceived(cat FeeCategory, amount uint64) {
	prev := ls.received[cat]
	ls.received[cat] = amount
	ls.journal.Record(func() {
		ls.received[cat] = prev
	})
	ls.persistFeeCategory(cat)
}

func (ls *LedgerState) persistFeeCategory(cat FeeCategory) {
	ls.journal.Persist("fee:"+cat.String(), func(txn *database.Txn) error {
		return txn.DB().SetFeeCategory(
			&models.FeeCategory{
				Category: uint8(cat),
				Weight:   types.Uint64(ls.weights[cat]),
				Received: types.Uint64(ls.received[cat]),
			},
			txn,
		)
	})
}

func (ls *LedgerState) setExempt(addr Address, exempt bool) {
	_, prev := ls.exempt[addr]
	if prev == exempt {
		return
	}
	if exempt {
		ls.exempt[addr] = struct{}{}
	} else {
		delete(ls.exempt, addr)
	}
	ls.journal.Record(func() {
		if prev {
			ls.exempt[addr] = struct{}{}
		} else {
			delete(ls.exempt, addr)
		}
	})
	ls.journal.Persist("exempt:"+addr.Hex(), func(txn *database.Txn) error {
		_, ok := ls.exempt[addr]
		return txn.DB().SetFeeExemption(
			&models.FeeExemption{
				Address: addr.Bytes(),
				Exempt:  ok,
			},
			txn,
		)
	})
}

func (ls *LedgerState) updateGovernance(fn func(*governance)) {
	prev := ls.gov
	fn(&ls.gov)
	ls.journal.Record(func() {
		ls.gov = prev
	})
	ls.journal.Persist("governance", func(txn *database.Txn) error {
		return txn.DB().SetGovernanceState(governanceModel(ls.gov), txn)
	})
}

func holderModel(addr Address, h Holder) *models.Holder {
	return &models.Holder{
		Address:    addr.Bytes(),
		President:  h.Choice.President.Bytes(),
		Senate:     h.Choice.Senate.Bytes(),
		Court:      h.Choice.Court.Bytes(),
		Treasury:   h.Choice.Treasury.Bytes(),
		LawAddress: h.Choice.Law.Address.Bytes(),
		LawIndex:   types.Uint64(h.Choice.Law.Index),
		Status:     uint8(h.Status),
	}
}

func governanceModel(g governance) *models.GovernanceState {
	return &models.GovernanceState{
		Automation:     g.automation.Bytes(),
		FeeRecipient:   g.feeRecipient.Bytes(),
		MonarchyEnd:    g.monarchyEnd.UnixMilli(),
		QuotaResetAt:   g.quotaResetAt.UnixMilli(),
		QuotaRemaining: types.Uint64(g.quota),
		TotalAccrued:   types.Uint64(g.totalAccrued),
		PoolBalance:    types.Uint64(g.poolBalance),
		Abdicated:      g.abdicated,
	}
}

// Load replaces the in-memory state with the state stored in db
func (ls *LedgerState) Load(db *database.Database) error {
	txn := db.Transaction(false)
	defer txn.Release()
	return txn.Do(func(txn *database.Txn) error {
		return ls.load(db, txn)
	})
}

func (ls *LedgerState) load(db *database.Database, txn *database.Txn) error {
	holders := make(map[Address]Holder)
	tally := make(map[TallyKey]uint64)
	exempt := make(map[Address]struct{})
	var roles [NumBranches]Address
	var weights, received [NumFeeCategories]uint64
	var gov governance
	govModel, err := db.GetGovernanceState(txn)
	if err != nil {
		return fmt.Errorf("load governance state: %w", err)
	}
	if govModel == nil {
		// Nothing has been committed yet
		return nil
	}
	gov.initialized = true
	gov.monarchyEnd = time.UnixMilli(govModel.MonarchyEnd).UTC()
	gov.quotaResetAt = time.UnixMilli(govModel.QuotaResetAt).UTC()
	gov.quota = uint64(govModel.QuotaRemaining)
	gov.totalAccrued = uint64(govModel.TotalAccrued)
	gov.poolBalance = uint64(govModel.PoolBalance)
	gov.abdicated = govModel.Abdicated
	if gov.automation, err = addressFromModel(govModel.Automation); err != nil {
		return err
	}
	if gov.feeRecipient, err = addressFromModel(govModel.FeeRecipient); err != nil {
		return err
	}
	holderModels, err := db.GetHolders(txn)
	if err != nil {
		return fmt.Errorf("load holders: %w", err)
	}
	for _, m := range holderModels {
		addr, err := addressFromModel(m.Address)
		if err != nil {
			return err
		}
		h, err := holderFromModel(m)
		if err != nil {
			return err
		}
		holders[addr] = h
	}
	entries, err := db.GetTallyEntries(txn)
	if err != nil {
		return fmt.Errorf("load tally: %w", err)
	}
	for _, m := range entries {
		candidate, err := addressFromModel(m.Candidate)
		if err != nil {
			return err
		}
		if m.Category >= NumCategories {
			return fmt.Errorf("%w: stored tally category %d", ErrInvalidArgument, m.Category)
		}
		key := TallyKey{
			Candidate: candidate,
			Category:  Category(m.Category),
			Index:     uint64(m.LawIndex),
		}
		tally[key] = uint64(m.Weight)
	}
	roleModels, err := db.GetRoles(txn)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	for _, m := range roleModels {
		if m.Category >= NumBranches {
			return fmt.Errorf("%w: stored role category %d", ErrInvalidArgument, m.Category)
		}
		if roles[m.Category], err = addressFromModel(m.Holder); err != nil {
			return err
		}
	}
	feeModels, err := db.GetFeeCategories(txn)
	if err != nil {
		return fmt.Errorf("load fee categories: %w", err)
	}
	for _, m := range feeModels {
		if m.Category >= NumFeeCategories {
			return fmt.Errorf("%w: stored fee category %d", ErrInvalidArgument, m.Category)
		}
		weights[m.Category] = uint64(m.Weight)
		received[m.Category] = uint64(m.Received)
	}
	exemptModels, err := db.GetFeeExemptions(txn)
	if err != nil {
		return fmt.Errorf("load fee exemptions: %w", err)
	}
	for _, m := range exemptModels {
		if !m.Exempt {
			continue
		}
		addr, err := addressFromModel(m.Address)
		if err != nil {
			return err
		}
		exempt[addr] = struct{}{}
	}
	ls.holders = holders
	ls.tally = tally
	ls.exempt = exempt
	ls.roles = roles
	ls.weights = weights
	ls.received = received
	ls.gov = gov
	ls.logger.Info(
		"loaded ledger state",
		"holders", len(holders),
		"tally_entries", len(tally),
		"fee_recipient", gov.feeRecipient.String(),
	)
	ls.UpdateMetrics()
	return nil
}

func holderFromModel(m models.Holder) (Holder, error) {
	var h Holder
	var err error
	if h.Choice.President, err = addressFromModel(m.President); err != nil {
		return h, err
	}
	if h.Choice.Senate, err = addressFromModel(m.Senate); err != nil {
		return h, err
	}
	if h.Choice.Court, err = addressFromModel(m.Court); err != nil {
		return h, err
	}
	if h.Choice.Treasury, err = addressFromModel(m.Treasury); err != nil {
		return h, err
	}
	if h.Choice.Law.Address, err = addressFromModel(m.LawAddress); err != nil {
		return h, err
	}
	h.Choice.Law.Index = uint64(m.LawIndex)
	h.Status = HolderStatus(m.Status)
	if h.Status > HolderRestricted {
		return h, fmt.Errorf("%w: stored holder status %d", ErrInvalidArgument, m.Status)
	}
	return h, nil
}
