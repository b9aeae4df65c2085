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

package sqlite

import (
	"testing"

	"github.com/blinklabs-io/polity/database/models"
	"github.com/blinklabs-io/polity/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *MetadataStoreSqlite {
	t.Helper()
	store, err := New("", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func testAddress(b byte) []byte {
	ret := make([]byte, 20)
	ret[19] = b
	return ret
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	store1 := setupTestStore(t)
	store2 := setupTestStore(t)
	require.NoError(t, store1.SetHolder(&models.Holder{Address: testAddress(1)}, nil))
	holders, err := store2.GetHolders(nil)
	require.NoError(t, err)
	assert.Empty(t, holders)
}

func TestCommitTimestamp(t *testing.T) {
	store := setupTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	txn := store.Transaction()
	require.NoError(t, store.SetCommitTimestamp(12345, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(12345), ts)

	// Overwrite
	require.NoError(t, store.SetCommitTimestamp(67890, nil))
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(67890), ts)
}

func TestHolderUpsert(t *testing.T) {
	store := setupTestStore(t)
	addr := testAddress(1)
	require.NoError(t, store.SetHolder(&models.Holder{
		Address:   addr,
		President: testAddress(2),
		LawIndex:  7,
	}, nil))
	require.NoError(t, store.SetHolder(&models.Holder{
		Address:   addr,
		President: testAddress(3),
		LawIndex:  9,
		Status:    1,
	}, nil))
	holders, err := store.GetHolders(nil)
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, testAddress(3), holders[0].President)
	assert.Equal(t, types.Uint64(9), holders[0].LawIndex)
	assert.Equal(t, uint8(1), holders[0].Status)

	holder, err := store.GetHolder(addr, nil)
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, addr, holder.Address)

	missing, err := store.GetHolder(testAddress(99), nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTallyEntryCompositeKey(t *testing.T) {
	store := setupTestStore(t)
	cand := testAddress(5)
	entries := []models.TallyEntry{
		{Candidate: cand, Category: 0, Weight: 100},
		{Candidate: cand, Category: 1, Weight: 200},
		{Candidate: cand, Category: 4, LawIndex: 1, Weight: 300},
		{Candidate: cand, Category: 4, LawIndex: 2, Weight: 400},
		// Replaces the first entry
		{Candidate: cand, Category: 0, Weight: 150},
	}
	for i := range entries {
		require.NoError(t, store.SetTallyEntry(&entries[i], nil))
	}
	got, err := store.GetTallyEntries(nil)
	require.NoError(t, err)
	require.Len(t, got, 4)
	weights := map[[2]uint64]types.Uint64{}
	for _, e := range got {
		weights[[2]uint64{uint64(e.Category), uint64(e.LawIndex)}] = e.Weight
	}
	assert.Equal(t, types.Uint64(150), weights[[2]uint64{0, 0}])
	assert.Equal(t, types.Uint64(200), weights[[2]uint64{1, 0}])
	assert.Equal(t, types.Uint64(300), weights[[2]uint64{4, 1}])
	assert.Equal(t, types.Uint64(400), weights[[2]uint64{4, 2}])
}

func TestGovernanceStateSingleton(t *testing.T) {
	store := setupTestStore(t)
	state, err := store.GetGovernanceState(nil)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, store.SetGovernanceState(&models.GovernanceState{
		FeeRecipient: testAddress(9),
		TotalAccrued: 3000,
	}, nil))
	require.NoError(t, store.SetGovernanceState(&models.GovernanceState{
		FeeRecipient: testAddress(9),
		TotalAccrued: 4000,
		Abdicated:    true,
	}, nil))
	state, err = store.GetGovernanceState(nil)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, types.Uint64(4000), state.TotalAccrued)
	assert.True(t, state.Abdicated)
	assert.Equal(t, uint(models.GovernanceStateID), state.ID)
}

func TestRolesAndFees(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.SetRole(&models.Role{Category: 0, Holder: testAddress(1)}, nil))
	require.NoError(t, store.SetRole(&models.Role{Category: 0, Holder: testAddress(2)}, nil))
	require.NoError(t, store.SetRole(&models.Role{Category: 3, Holder: testAddress(3)}, nil))
	roles, err := store.GetRoles(nil)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, testAddress(2), roles[0].Holder)

	for i, w := range []uint64{5, 5, 5, 5, 10} {
		require.NoError(t, store.SetFeeCategory(&models.FeeCategory{
			Category: uint8(i), //nolint:gosec
			Weight:   types.Uint64(w),
		}, nil))
	}
	require.NoError(t, store.SetFeeCategory(&models.FeeCategory{
		Category: 0,
		Weight:   5,
		Received: 750,
	}, nil))
	fees, err := store.GetFeeCategories(nil)
	require.NoError(t, err)
	require.Len(t, fees, 5)
	assert.Equal(t, types.Uint64(750), fees[0].Received)
	assert.Equal(t, types.Uint64(10), fees[4].Weight)

	require.NoError(t, store.SetFeeExemption(&models.FeeExemption{Address: testAddress(9), Exempt: true}, nil))
	require.NoError(t, store.SetFeeExemption(&models.FeeExemption{Address: testAddress(9), Exempt: false}, nil))
	exemptions, err := store.GetFeeExemptions(nil)
	require.NoError(t, err)
	require.Len(t, exemptions, 1)
	assert.False(t, exemptions[0].Exempt)
}

func TestTokenRecords(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.SetTokenBalance(&models.TokenBalance{Address: testAddress(1), Balance: 1000}, nil))
	require.NoError(t, store.SetTokenAllowance(&models.TokenAllowance{Owner: testAddress(1), Spender: testAddress(2), Amount: 50}, nil))
	require.NoError(t, store.SetTokenAllowance(&models.TokenAllowance{Owner: testAddress(1), Spender: testAddress(2), Amount: 25}, nil))
	require.NoError(t, store.SetTokenSupply(&models.TokenSupply{TotalSupply: 1000}, nil))
	require.NoError(t, store.SetValueAccount(&models.ValueAccount{Address: testAddress(3), Balance: 750}, nil))

	balances, err := store.GetTokenBalances(nil)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, types.Uint64(1000), balances[0].Balance)
	allowances, err := store.GetTokenAllowances(nil)
	require.NoError(t, err)
	require.Len(t, allowances, 1)
	assert.Equal(t, types.Uint64(25), allowances[0].Amount)
	supply, err := store.GetTokenSupply(nil)
	require.NoError(t, err)
	require.NotNil(t, supply)
	assert.Equal(t, types.Uint64(1000), supply.TotalSupply)
	accounts, err := store.GetValueAccounts(nil)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, types.Uint64(750), accounts[0].Balance)
}

func TestTransactionRollback(t *testing.T) {
	store := setupTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetTokenBalance(&models.TokenBalance{Address: testAddress(1), Balance: 1}, txn))
	require.NoError(t, txn.Rollback())
	balances, err := store.GetTokenBalances(nil)
	require.NoError(t, err)
	assert.Empty(t, balances)
	// Finished transactions can no longer be used
	assert.Error(t, store.SetTokenBalance(&models.TokenBalance{Address: testAddress(1)}, txn))
}

func TestPersistentDataDir(t *testing.T) {
	dataDir := t.TempDir()
	store, err := New(dataDir, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.SetTokenSupply(&models.TokenSupply{TotalSupply: 42}, nil))
	require.NoError(t, store.Close())

	store, err = New(dataDir, nil, nil)
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	supply, err := store.GetTokenSupply(nil)
	require.NoError(t, err)
	require.NotNil(t, supply)
	assert.Equal(t, types.Uint64(42), supply.TotalSupply)
}
