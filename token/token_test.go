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

package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/polity/database"
	"github.com/blinklabs-io/polity/event"
	"github.com/blinklabs-io/polity/ledger"
	"github.com/blinklabs-io/polity/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(n byte) ledger.Address {
	var ret ledger.Address
	ret[0] = 0xb0
	ret[ledger.AddressLength-1] = n
	return ret
}

var (
	testPresident = testAddress(1)
	testRecipient = testAddress(9)
)

func newTestToken(t *testing.T, journal *ledger.Journal) (*token.Token, *ledger.LedgerState) {
	t.Helper()
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{Journal: journal})
	require.NoError(t, err)
	require.NoError(t, ls.ApplyGenesis(ledger.Genesis{
		President:    testPresident,
		FeeRecipient: testRecipient,
		MonarchyEnd:  time.Now().Add(time.Hour),
		Weights:      [ledger.NumFeeCategories]uint64{5, 5, 5, 5, 10},
	}))
	tok, err := token.New(token.TokenConfig{Ledger: ls, Journal: journal})
	require.NoError(t, err)
	ls.SetBalanceReader(tok)
	return tok, ls
}

func sumBalances(tok *token.Token) uint64 {
	var ret uint64
	for _, bal := range tok.Balances() {
		ret += bal
	}
	return ret
}

func TestTransfer(t *testing.T) {
	tok, ls := newTestToken(t, nil)
	alice := testAddress(2)
	bob := testAddress(3)
	candidate := testAddress(4)
	require.NoError(t, tok.Mint(alice, 10000))
	assert.Equal(t, uint64(10000), tok.TotalSupply())
	require.NoError(t, ls.ChangeChoice(alice, ledger.Choice{Treasury: candidate}))

	fee, err := tok.Transfer(alice, bob, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), fee)
	assert.Equal(t, uint64(9000), tok.BalanceOf(alice))
	assert.Equal(t, uint64(700), tok.BalanceOf(bob))
	assert.Equal(t, uint64(300), tok.BalanceOf(testRecipient))
	assert.Equal(t, tok.TotalSupply(), sumBalances(tok))
	treasuryKey := ledger.TallyKey{Candidate: candidate, Category: ledger.CategoryTreasury}
	assert.Equal(t, uint64(9000), ls.Tally(treasuryKey))
	total, err := ls.CategoryTotal(ledger.CategoryTreasury)
	require.NoError(t, err)
	assert.Equal(t, uint64(9700), total)

	// The fee recipient is exempt in both directions
	fee, err = tok.Transfer(testRecipient, bob, 300)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), fee)
	assert.Equal(t, uint64(1000), tok.BalanceOf(bob))
}

func TestTransferErrors(t *testing.T) {
	tok, _ := newTestToken(t, nil)
	alice := testAddress(2)
	require.NoError(t, tok.Mint(alice, 100))
	_, err := tok.Transfer(alice, testAddress(3), 101)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	_, err = tok.Transfer(alice, ledger.NullAddress, 1)
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	_, err = tok.Transfer(ledger.NullAddress, alice, 1)
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	require.ErrorIs(t, tok.Mint(ledger.NullAddress, 1), ledger.ErrInvalidArgument)
	require.ErrorIs(t, tok.Mint(alice, ^uint64(0)), ledger.ErrArithmetic)
	assert.Equal(t, uint64(100), tok.BalanceOf(alice))
}

type failingLedger struct {
	err error
}

func (failingLedger) ComputeFee(_, _ ledger.Address, amount uint64) uint64 {
	return amount / 10
}

func (f failingLedger) TransferVote(_, _ ledger.Address, _, _ uint64) error {
	return f.err
}

func (failingLedger) FeeRecipient() ledger.Address {
	return testRecipient
}

func TestTransferVoteFailureLeavesBalances(t *testing.T) {
	fl := &failingLedger{}
	tok, err := token.New(token.TokenConfig{Ledger: fl})
	require.NoError(t, err)
	alice := testAddress(2)
	require.NoError(t, tok.Mint(alice, 100))
	fl.err = ledger.ErrStateConflict
	_, err = tok.Transfer(alice, testAddress(3), 50)
	require.ErrorIs(t, err, ledger.ErrStateConflict)
	assert.Equal(t, uint64(100), tok.BalanceOf(alice))
	assert.Equal(t, uint64(0), tok.BalanceOf(testAddress(3)))
	assert.Equal(t, uint64(0), tok.BalanceOf(testRecipient))
}

func TestTokenRequiresLedger(t *testing.T) {
	_, err := token.New(token.TokenConfig{})
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)
}

func TestTransferFrom(t *testing.T) {
	tok, _ := newTestToken(t, nil)
	owner := testAddress(2)
	spender := testAddress(3)
	dest := testAddress(4)
	require.NoError(t, tok.Mint(owner, 1000))
	require.NoError(t, tok.Approve(owner, spender, 500))
	require.ErrorIs(t, tok.Approve(ledger.NullAddress, spender, 1), ledger.ErrInvalidArgument)

	_, err := tok.TransferFrom(spender, owner, dest, 600)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	fee, err := tok.TransferFrom(spender, owner, dest, 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), fee)
	assert.Equal(t, uint64(100), tok.Allowance(owner, spender))
	assert.Equal(t, uint64(280), tok.BalanceOf(dest))
	assert.Equal(t, uint64(600), tok.BalanceOf(owner))
}

func TestTransferEvents(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	_, evtCh := bus.Subscribe(token.TransferEventType)
	tok, _ := newTestToken(t, ledger.NewJournal(bus))
	require.NoError(t, tok.Mint(testAddress(2), 10))
	select {
	case evt := <-evtCh:
		assert.Equal(
			t,
			token.TransferEvent{To: testAddress(2), Amount: 10},
			evt.Data,
		)
	case <-time.After(time.Second):
		t.Fatal("transfer event not delivered")
	}
}

func TestJournalRevertAndLoad(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	journal := ledger.NewJournal(nil)
	tok, _ := newTestToken(t, journal)
	alice := testAddress(2)
	bob := testAddress(3)

	commit := func(fn func() error) error {
		journal.Begin()
		if err := fn(); err != nil {
			journal.Revert()
			return err
		}
		if err := db.Transaction(true).Do(journal.Flush); err != nil {
			journal.Revert()
			return err
		}
		journal.Commit()
		return nil
	}
	require.NoError(t, commit(func() error {
		if err := tok.Mint(alice, 1000); err != nil {
			return err
		}
		return tok.Approve(alice, bob, 50)
	}))
	testErr := errors.New("abort")
	err = commit(func() error {
		if _, err := tok.Transfer(alice, bob, 500); err != nil {
			return err
		}
		return testErr
	})
	require.ErrorIs(t, err, testErr)
	assert.Equal(t, uint64(1000), tok.BalanceOf(alice))
	assert.Equal(t, uint64(0), tok.BalanceOf(bob))

	loaded, err := token.New(token.TokenConfig{Ledger: &failingLedger{}})
	require.NoError(t, err)
	require.NoError(t, loaded.Load(db))
	assert.Equal(t, tok.Balances(), loaded.Balances())
	assert.Equal(t, uint64(1000), loaded.TotalSupply())
	assert.Equal(t, uint64(50), loaded.Allowance(alice, bob))
}
