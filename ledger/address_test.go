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

package ledger_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/blinklabs-io/polity/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	hexAddr := "0x00112233445566778899aabbccddeeff00112233"
	addr, err := ledger.ParseAddress(hexAddr)
	require.NoError(t, err)
	assert.Equal(t, hexAddr, addr.Hex())
	assert.True(t, strings.HasPrefix(addr.String(), ledger.AddressHrp+"1"))
	parsed, err := ledger.ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
	assert.False(t, addr.IsNull())
}

func TestParseAddressErrors(t *testing.T) {
	testDefs := []string{
		"0x0011",
		"0xzz",
		"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"not-an-address",
	}
	for _, testDef := range testDefs {
		_, err := ledger.ParseAddress(testDef)
		require.ErrorIs(t, err, ledger.ErrInvalidArgument, "input %q", testDef)
	}
	addr, err := ledger.ParseAddress("  ")
	require.NoError(t, err)
	assert.True(t, addr.IsNull())
}

func TestAddressJSON(t *testing.T) {
	addr, err := ledger.NewAddress([]byte("0123456789abcdefghij"))
	require.NoError(t, err)
	choice := ledger.Choice{
		President: addr,
		Law:       ledger.LawChoice{Address: addr, Index: 7},
	}
	data, err := json.Marshal(choice)
	require.NoError(t, err)
	var decoded ledger.Choice
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, choice, decoded)

	_, err = ledger.NewAddress([]byte("short"))
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)
}

func TestCategoryParsing(t *testing.T) {
	for _, cat := range ledger.AllCategories() {
		parsed, err := ledger.ParseCategory(cat.String())
		require.NoError(t, err)
		assert.Equal(t, cat, parsed)
	}
	assert.False(t, ledger.CategoryLaw.IsBranch())
	assert.True(t, ledger.CategoryTreasury.IsBranch())
	_, err := ledger.ParseCategory("king")
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)

	fc, err := ledger.ParseFeeCategory("LIQUIDITY")
	require.NoError(t, err)
	assert.Equal(t, ledger.FeeLiquidity, fc)
	_, ok := fc.Branch()
	assert.False(t, ok)
	branch, ok := ledger.FeeCourt.Branch()
	assert.True(t, ok)
	assert.Equal(t, ledger.CategoryCourt, branch)
}
