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

package settlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/polity/ledger"
	"github.com/blinklabs-io/polity/settlement"
	"github.com/blinklabs-io/polity/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(n byte) ledger.Address {
	var ret ledger.Address
	ret[0] = 0xd0
	ret[ledger.AddressLength-1] = n
	return ret
}

var (
	testPresident = testAddress(1)
	testRecipient = testAddress(9)
	testRouter    = testAddress(20)
	testPair      = testAddress(21)
)

type testEnv struct {
	ledger *ledger.LedgerState
	token  *token.Token
	router *settlement.StaticRouter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{})
	require.NoError(t, err)
	require.NoError(t, ls.ApplyGenesis(ledger.Genesis{
		President:    testPresident,
		FeeRecipient: testRecipient,
		MonarchyEnd:  time.Now().Add(time.Hour),
		Weights:      [ledger.NumFeeCategories]uint64{5, 5, 5, 5, 10},
	}))
	tok, err := token.New(token.TokenConfig{Ledger: ls})
	require.NoError(t, err)
	ls.SetBalanceReader(tok)
	router, err := settlement.NewStaticRouter(testRouter, testPair, 2*settlement.RatePrecision)
	require.NoError(t, err)
	// Collect 300 tokens of fees
	require.NoError(t, tok.Mint(testAddress(2), 10000))
	_, err = tok.Transfer(testAddress(2), testAddress(3), 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(300), tok.BalanceOf(testRecipient))
	return &testEnv{ledger: ls, token: tok, router: router}
}

func (e *testEnv) settler(t *testing.T, router settlement.Router, minBatch uint64, reg prometheus.Registerer) *settlement.Settler {
	t.Helper()
	s, err := settlement.NewSettler(settlement.SettlerConfig{
		PromRegistry: reg,
		Ledger:       e.ledger,
		Token:        e.token,
		Router:       router,
		MinBatch:     minBatch,
	})
	require.NoError(t, err)
	return s
}

func TestSettle(t *testing.T) {
	env := newTestEnv(t)
	reg := prometheus.NewRegistry()
	s := env.settler(t, env.router, 0, reg)

	_, err := s.Settle(context.Background(), testAddress(2))
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	res, err := s.Settle(context.Background(), testPresident)
	require.NoError(t, err)
	// 300 * 10 / 30 goes to the pair, the rest is swapped at 2 value per token
	assert.Equal(t, settlement.Result{Liquidity: 100, Swapped: 200, Proceeds: 400}, res)
	assert.Equal(t, uint64(0), env.token.BalanceOf(testRecipient))
	assert.Equal(t, uint64(100), env.token.BalanceOf(testPair))
	assert.Equal(t, uint64(200), env.token.BalanceOf(testRouter))
	assert.Equal(t, uint64(400), env.ledger.PoolBalance())
	assert.Equal(t, uint64(400), env.ledger.TotalAccrued())
	swapped, liquidity, proceeds := env.router.Totals()
	assert.Equal(t, uint64(200), swapped)
	assert.Equal(t, uint64(100), liquidity)
	assert.Equal(t, uint64(400), proceeds)
	assert.InDelta(t, 1, counterValue(t, reg, "polity_settlement_runs_total"), 0)
	assert.InDelta(t, 400, counterValue(t, reg, "polity_settlement_proceeds_total"), 0)

	// Nothing left to settle
	res, err = s.Settle(context.Background(), testPresident)
	require.NoError(t, err)
	assert.Equal(t, settlement.Result{}, res)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestSettleMinBatch(t *testing.T) {
	env := newTestEnv(t)
	s := env.settler(t, env.router, 301, nil)
	res, err := s.Settle(context.Background(), testPresident)
	require.NoError(t, err)
	assert.Equal(t, settlement.Result{}, res)
	assert.Equal(t, uint64(300), env.token.BalanceOf(testRecipient))
}

type reentrantRouter struct {
	*settlement.StaticRouter
	settler *settlement.Settler
	err     error
}

func (r *reentrantRouter) SwapForValue(ctx context.Context, tokens uint64) (uint64, error) {
	_, r.err = r.settler.Settle(ctx, testPresident)
	return r.StaticRouter.SwapForValue(ctx, tokens)
}

func TestSettleReentry(t *testing.T) {
	env := newTestEnv(t)
	router := &reentrantRouter{StaticRouter: env.router}
	s := env.settler(t, router, 0, nil)
	router.settler = s
	_, err := s.Settle(context.Background(), testPresident)
	require.NoError(t, err)
	require.ErrorIs(t, router.err, ledger.ErrStateConflict)
}

func TestSettleCanceled(t *testing.T) {
	env := newTestEnv(t)
	s := env.settler(t, env.router, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Settle(ctx, testPresident)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStaticRouter(t *testing.T) {
	_, err := settlement.NewStaticRouter(ledger.NullAddress, testPair, 1)
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	_, err = settlement.NewStaticRouter(testPair, testPair, 1)
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	r, err := settlement.NewStaticRouter(testRouter, testPair, settlement.RatePrecision/2)
	require.NoError(t, err)
	value, err := r.SwapForValue(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), value)
}
