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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testGenesisTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testBalances map[Address]uint64

func (b testBalances) BalanceOf(addr Address) uint64 {
	return b[addr]
}

type testPayer struct {
	paid map[Address]uint64
	err  error
}

func (p *testPayer) Pay(to Address, amount uint64) error {
	if p.err != nil {
		return p.err
	}
	p.paid[to] += amount
	return nil
}

func testAddress(n byte) Address {
	var ret Address
	ret[0] = 0xa0
	ret[AddressLength-1] = n
	return ret
}

var (
	testPresident  = testAddress(1)
	testRecipient  = testAddress(9)
	testAutomation = testAddress(8)
)

type testLedger struct {
	*LedgerState
	clock    *testClock
	balances testBalances
	payer    *testPayer
}

func newTestLedger(t *testing.T, params Params, weights [NumFeeCategories]uint64) *testLedger {
	t.Helper()
	tl := &testLedger{
		clock:    &testClock{now: testGenesisTime},
		balances: make(testBalances),
		payer:    &testPayer{paid: make(map[Address]uint64)},
	}
	ls, err := NewLedgerState(LedgerStateConfig{
		Clock:    tl.clock,
		Balances: tl.balances,
		Payer:    tl.payer,
		Params:   params,
	})
	require.NoError(t, err)
	tl.LedgerState = ls
	require.NoError(t, ls.ApplyGenesis(Genesis{
		President:    testPresident,
		Automation:   testAutomation,
		FeeRecipient: testRecipient,
		MonarchyEnd:  testGenesisTime.Add(time.Hour),
		Weights:      weights,
	}))
	return tl
}

func newDefaultTestLedger(t *testing.T) *testLedger {
	t.Helper()
	return newTestLedger(t, DefaultParams(), [NumFeeCategories]uint64{5, 5, 5, 5, 10})
}

// mint credits new tokens the way the token does at genesis
func (tl *testLedger) mint(t *testing.T, to Address, amount uint64) {
	t.Helper()
	require.NoError(t, tl.TransferVote(NullAddress, to, amount, 0))
	tl.balances[to] += amount
}

// transfer moves tokens the way the token does: fee, vote weight, balances
func (tl *testLedger) transfer(from, to Address, amount uint64) (uint64, error) {
	if tl.balances[from] < amount {
		return 0, ErrInsufficientFunds
	}
	fee := tl.ComputeFee(from, to, amount)
	if err := tl.TransferVote(from, to, amount, fee); err != nil {
		return 0, err
	}
	tl.balances[from] -= amount
	tl.balances[to] += amount - fee
	tl.balances[tl.FeeRecipient()] += fee
	return fee, nil
}

// requireConservation checks that every category's tally total equals the
// balance held by holders that may vote
func (tl *testLedger) requireConservation(t *testing.T) {
	t.Helper()
	var voting uint64
	for addr, bal := range tl.balances {
		if addr.IsNull() || tl.Holder(addr).Restricted() {
			continue
		}
		voting += bal
	}
	for _, cat := range AllCategories() {
		total, err := tl.CategoryTotal(cat)
		require.NoError(t, err)
		require.Equal(t, voting, total, "category %s", cat)
	}
}
