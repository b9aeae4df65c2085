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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFee(t *testing.T) {
	tl := newDefaultTestLedger(t)
	alice := testAddress(2)
	bob := testAddress(3)
	assert.Equal(t, uint64(300), tl.ComputeFee(alice, bob, 1000))
	assert.Equal(t, uint64(0), tl.ComputeFee(alice, bob, 3))
	assert.Equal(t, uint64(0), tl.ComputeFee(testRecipient, bob, 1000))
	assert.Equal(t, uint64(0), tl.ComputeFee(alice, testRecipient, 1000))
	require.NoError(t, tl.SetFeeExempt(testPresident, alice, true))
	assert.Equal(t, uint64(0), tl.ComputeFee(alice, bob, 1000))
	assert.Equal(t, uint64(0), tl.ComputeFee(bob, alice, 1000))
	require.NoError(t, tl.SetFeeExempt(testPresident, alice, false))
	assert.Equal(t, uint64(300), tl.ComputeFee(alice, bob, 1000))
}

func TestComputeFeeWithoutRecipient(t *testing.T) {
	ls, err := NewLedgerState(LedgerStateConfig{})
	require.NoError(t, err)
	require.NoError(t, ls.ApplyGenesis(Genesis{
		President: testPresident,
		Weights:   [NumFeeCategories]uint64{5, 5, 5, 5, 10},
	}))
	assert.Equal(t, uint64(0), ls.ComputeFee(testAddress(2), testAddress(3), 1000))
}

func TestSetWeightOverCap(t *testing.T) {
	params := DefaultParams()
	params.MaxFeeSum = 20
	tl := newTestLedger(t, params, [NumFeeCategories]uint64{5, 5, 0, 0, 10})
	err := tl.SetWeight(testPresident, FeeCourt, 1)
	require.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, [NumFeeCategories]uint64{5, 5, 0, 0, 10}, tl.Weights())
	// Replacing a weight only counts the difference
	require.NoError(t, tl.SetWeight(testPresident, FeeSenate, 0))
	require.NoError(t, tl.SetWeight(testPresident, FeeCourt, 5))
	assert.Equal(t, uint64(20), tl.GetSumOfWeight())
}

func TestSetWeightErrors(t *testing.T) {
	tl := newTestLedger(t, DefaultParams(), [NumFeeCategories]uint64{5, 0, 0, 0, 10})
	require.ErrorIs(t, tl.SetWeight(testAddress(2), FeeSenate, 1), ErrUnauthorized)
	require.ErrorIs(t, tl.SetWeight(testPresident, FeeCategory(NumFeeCategories), 1), ErrInvalidArgument)
	// Liquidity alone would leave withdrawals without a denominator
	require.ErrorIs(t, tl.SetWeight(testPresident, FeePresident, 0), ErrInvalidArgument)
	release, err := tl.distLock.Acquire()
	require.NoError(t, err)
	require.ErrorIs(t, tl.SetWeight(testPresident, FeeSenate, 1), ErrStateConflict)
	release()
	assert.Equal(t, uint64(0), tl.GetWeight(FeeSenate))
	// An empty schedule is fine
	require.NoError(t, tl.SetWeight(testPresident, FeeLiquidity, 0))
	require.NoError(t, tl.SetWeight(testPresident, FeePresident, 0))
	assert.Equal(t, uint64(0), tl.GetSumOfWeight())
	assert.Equal(t, uint64(0), tl.ComputeFee(testAddress(2), testAddress(3), 1000))
}

func TestSetWeightResetsDistribution(t *testing.T) {
	tl := newDefaultTestLedger(t)
	require.NoError(t, tl.OnValueReceived(3000))
	amount, err := tl.Withdraw(testPresident, FeePresident)
	require.NoError(t, err)
	require.Equal(t, uint64(750), amount)

	require.NoError(t, tl.SetWeight(testPresident, FeeSenate, 0))
	assert.Equal(t, uint64(2250), tl.TotalAccrued())
	assert.Equal(t, uint64(2250), tl.PoolBalance())
	assert.Equal(t, uint64(0), tl.Received(FeePresident))
	// 2250 * 5 / (25 - 10)
	entitlement, err := tl.Entitlement(FeePresident)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), entitlement)
}

func TestSetFeeRecipient(t *testing.T) {
	tl := newDefaultTestLedger(t)
	next := testAddress(10)
	tl.mint(t, next, 400)
	require.ErrorIs(t, tl.SetFeeRecipient(testAddress(2), next), ErrUnauthorized)
	require.ErrorIs(t, tl.SetFeeRecipient(testPresident, NullAddress), ErrInvalidArgument)

	quotaBefore, _ := tl.Quota()
	require.NoError(t, tl.SetFeeRecipient(testPresident, next))
	assert.Equal(t, next, tl.FeeRecipient())
	assert.True(t, tl.IsFeeExempt(next))
	assert.False(t, tl.IsFeeExempt(testRecipient))
	assert.True(t, tl.Holder(next).Restricted())
	// The previous recipient stays restricted
	assert.True(t, tl.Holder(testRecipient).Restricted())
	quotaAfter, _ := tl.Quota()
	assert.Equal(t, quotaBefore, quotaAfter)
	tl.requireConservation(t)

	// Moving back to an already restricted address is allowed
	require.NoError(t, tl.SetFeeRecipient(testPresident, testRecipient))
	assert.True(t, tl.IsFeeExempt(testRecipient))
	assert.False(t, tl.IsFeeExempt(next))

	tl.clock.Advance(time.Hour)
	require.ErrorIs(t, tl.SetFeeRecipient(testPresident, next), ErrInvalidState)
	assert.Equal(t, testRecipient, tl.FeeRecipient())
}

func TestSetFeeExemptRecipient(t *testing.T) {
	tl := newDefaultTestLedger(t)
	require.ErrorIs(t, tl.SetFeeExempt(testPresident, testRecipient, false), ErrInvalidState)
	require.ErrorIs(t, tl.SetFeeExempt(testPresident, NullAddress, true), ErrInvalidArgument)
	require.ErrorIs(t, tl.SetFeeExempt(testAddress(2), testAddress(3), true), ErrUnauthorized)
	assert.Equal(t, []Address{testRecipient}, tl.FeeExemptions())
}

func TestSetAutomation(t *testing.T) {
	tl := newDefaultTestLedger(t)
	assert.True(t, tl.IsOperator(testAutomation))
	require.ErrorIs(t, tl.SetAutomation(testAutomation, testAddress(2)), ErrUnauthorized)
	require.NoError(t, tl.SetAutomation(testPresident, NullAddress))
	assert.False(t, tl.IsOperator(testAutomation))
	assert.False(t, tl.IsOperator(NullAddress))
	assert.True(t, tl.IsOperator(testPresident))
}
