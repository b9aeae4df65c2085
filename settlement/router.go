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

package settlement

import (
	"context"
	"fmt"
	"sync"

	"github.com/blinklabs-io/polity/ledger"
	"github.com/holiman/uint256"
)

// RatePrecision is the denominator of StaticRouter rates
const RatePrecision = 1_000_000

// Router converts collected fee tokens into native value and provides
// liquidity to the token's trading pair
type Router interface {
	// Address is where tokens to be swapped are sent before SwapForValue
	Address() ledger.Address
	// PairAddress is where the liquidity share is sent before AddLiquidity
	PairAddress() ledger.Address
	SwapForValue(ctx context.Context, tokens uint64) (uint64, error)
	AddLiquidity(ctx context.Context, tokens uint64) error
}

// StaticRouter swaps at a fixed rate expressed in value units per
// RatePrecision tokens
type StaticRouter struct {
	mu        sync.Mutex
	address   ledger.Address
	pair      ledger.Address
	rate      uint64
	swapped   uint64
	liquidity uint64
	proceeds  uint64
}

func NewStaticRouter(address, pair ledger.Address, rate uint64) (*StaticRouter, error) {
	if address.IsNull() || pair.IsNull() {
		return nil, fmt.Errorf("%w: router and pair addresses are required", ledger.ErrInvalidArgument)
	}
	if address == pair {
		return nil, fmt.Errorf("%w: router and pair addresses must differ", ledger.ErrInvalidArgument)
	}
	return &StaticRouter{
		address: address,
		pair:    pair,
		rate:    rate,
	}, nil
}

func (r *StaticRouter) Address() ledger.Address {
	return r.address
}

func (r *StaticRouter) PairAddress() ledger.Address {
	return r.pair
}

func (r *StaticRouter) SwapForValue(ctx context.Context, tokens uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	value := new(uint256.Int).SetUint64(tokens)
	value.Mul(value, uint256.NewInt(r.rate))
	value.Div(value, uint256.NewInt(RatePrecision))
	if !value.IsUint64() {
		return 0, fmt.Errorf("%w: swap proceeds overflow", ledger.ErrArithmetic)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapped += tokens
	r.proceeds += value.Uint64()
	return value.Uint64(), nil
}

func (r *StaticRouter) AddLiquidity(ctx context.Context, tokens uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.liquidity += tokens
	return nil
}

// Totals returns the tokens swapped, the tokens added as liquidity and the
// value produced so far
func (r *StaticRouter) Totals() (swapped, liquidity, proceeds uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapped, r.liquidity, r.proceeds
}
