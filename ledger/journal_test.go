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
	"math/rand/v2"
	"testing"
	"time"

	"github.com/blinklabs-io/polity/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRevert(t *testing.T) {
	tl := newDefaultTestLedger(t)
	holder := testAddress(2)
	tl.mint(t, holder, 1000)
	require.NoError(t, tl.OnValueReceived(3000))
	before := tl.Status()
	entriesBefore := tl.TallyEntries()

	j := tl.journal
	j.Begin()
	require.NoError(t, tl.ChangeChoice(holder, Choice{President: testAddress(3)}))
	_, err := tl.Withdraw(testPresident, FeePresident)
	require.NoError(t, err)
	require.NoError(t, tl.SetFeeExempt(testPresident, testAddress(4), true))
	require.NoError(t, tl.Restrict(testPresident, holder))
	assert.Positive(t, j.Pending())
	j.Revert()

	assert.False(t, j.Active())
	assert.Equal(t, before, tl.Status())
	assert.Equal(t, entriesBefore, tl.TallyEntries())
	assert.Equal(t, Holder{}, tl.Holder(holder))
	assert.False(t, tl.IsFeeExempt(testAddress(4)))
	tl.requireConservation(t)
}

func TestJournalEvents(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	j := NewJournal(bus)
	_, evtCh := bus.Subscribe(WithdrawalEventType)
	j.Begin()
	j.Emit(WithdrawalEventType, WithdrawalEvent{Amount: 1})
	j.Persist("a", nil)
	j.Persist("a", nil)
	assert.Equal(t, 1, j.Pending())
	select {
	case <-evtCh:
		t.Fatal("event published before commit")
	default:
	}
	evts := j.Commit()
	require.Len(t, evts, 1)
	assert.False(t, j.Active())
	assert.Equal(t, 0, j.Pending())
	j.Publish(evts)
	select {
	case evt := <-evtCh:
		assert.Equal(t, WithdrawalEvent{Amount: 1}, evt.Data)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	// Outside an operation events go straight to the bus
	j.Emit(WithdrawalEventType, WithdrawalEvent{Amount: 2})
	select {
	case evt := <-evtCh:
		assert.Equal(t, WithdrawalEvent{Amount: 2}, evt.Data)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestJournalNil(t *testing.T) {
	var j *Journal
	assert.False(t, j.Active())
	j.Record(func() { t.Fatal("undo recorded on nil journal") })
	j.Persist("a", nil)
	j.Emit(WithdrawalEventType, nil)
	j.Revert()
	assert.Nil(t, j.Commit())
	assert.NoError(t, j.Flush(nil))
	assert.Equal(t, 0, j.Pending())
	j.Publish(nil)
}

// TestConservation runs random operations and checks that tallies always
// match the balances of holders that may vote
func TestConservation(t *testing.T) {
	tl := newDefaultTestLedger(t)
	rng := rand.New(rand.NewPCG(1, 2))
	holders := make([]Address, 12)
	for i := range holders {
		holders[i] = testAddress(byte(30 + i))
		tl.mint(t, holders[i], uint64(rng.IntN(10000)))
	}
	candidates := []Address{testAddress(50), testAddress(51), testAddress(52), NullAddress}
	randomChoice := func() Choice {
		pick := func() Address { return candidates[rng.IntN(len(candidates))] }
		return Choice{
			President: pick(),
			Senate:    pick(),
			Court:     pick(),
			Treasury:  pick(),
			Law:       LawChoice{Address: pick(), Index: uint64(rng.IntN(3))},
		}
	}
	for range 2000 {
		from := holders[rng.IntN(len(holders))]
		to := holders[rng.IntN(len(holders))]
		switch rng.IntN(10) {
		case 0:
			err := tl.ChangeChoice(from, randomChoice())
			if tl.Holder(from).Restricted() {
				require.ErrorIs(t, err, ErrInvalidState)
			} else {
				require.NoError(t, err)
			}
		case 1:
			// Restrictions are scarce
			if rng.IntN(20) == 0 {
				_ = tl.Restrict(testPresident, from)
			}
			tl.clock.Advance(time.Hour)
		case 2:
			if tl.balances[from] > 0 {
				amount := uint64(rng.IntN(int(tl.balances[from]))) + 1
				require.NoError(t, tl.TransferVote(from, NullAddress, amount, 0))
				tl.balances[from] -= amount
			}
		default:
			if tl.balances[from] == 0 {
				continue
			}
			amount := uint64(rng.IntN(int(tl.balances[from]))) + 1
			_, err := tl.transfer(from, to, amount)
			require.NoError(t, err)
		}
		tl.requireConservation(t)
	}
}
