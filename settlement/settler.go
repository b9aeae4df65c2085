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

// Package settlement converts the fee recipient's token balance into
// liquidity and native value for the distribution pool
package settlement

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/polity/event"
	"github.com/blinklabs-io/polity/ledger"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const CompletedEventType event.EventType = "settlement.completed"

// Result describes one settlement run
type Result struct {
	Liquidity uint64 `json:"liquidity"`
	Swapped   uint64 `json:"swapped"`
	Proceeds  uint64 `json:"proceeds"`
}

// CompletedEvent is emitted after a settlement that moved tokens
type CompletedEvent struct {
	Result
	Caller ledger.Address `json:"caller"`
}

// FeeLedger is the part of the vote ledger a settlement reads and credits
type FeeLedger interface {
	IsOperator(ledger.Address) bool
	FeeRecipient() ledger.Address
	GetWeight(ledger.FeeCategory) uint64
	GetSumOfWeight() uint64
	OnValueReceived(amount uint64) error
}

// TokenLedger moves the collected fee tokens
type TokenLedger interface {
	BalanceOf(ledger.Address) uint64
	Transfer(from, to ledger.Address, amount uint64) (uint64, error)
}

type SettlerConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Journal      *ledger.Journal
	Ledger       FeeLedger
	Token        TokenLedger
	Router       Router
	// MinBatch is the smallest fee recipient balance worth settling
	MinBatch uint64
}

type Settler struct {
	config  SettlerConfig
	logger  *slog.Logger
	journal *ledger.Journal
	guard   *ledger.Guard
	metrics settlerMetrics
}

type settlerMetrics struct {
	runs      prometheus.Counter
	swapped   prometheus.Counter
	liquidity prometheus.Counter
	proceeds  prometheus.Counter
}

func NewSettler(cfg SettlerConfig) (*Settler, error) {
	if cfg.Ledger == nil || cfg.Token == nil || cfg.Router == nil {
		return nil, fmt.Errorf(
			"%w: settler requires a ledger, a token and a router",
			ledger.ErrInvalidArgument,
		)
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Journal == nil {
		cfg.Journal = ledger.NewJournal(nil)
	}
	s := &Settler{
		config:  cfg,
		logger:  cfg.Logger.With("component", "settlement"),
		journal: cfg.Journal,
		guard:   ledger.NewGuard("swap"),
	}
	promautoFactory := promauto.With(cfg.PromRegistry)
	s.metrics.runs = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "polity_settlement_runs_total",
		Help: "settlements that moved tokens",
	})
	s.metrics.swapped = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "polity_settlement_swapped_tokens_total",
		Help: "fee tokens swapped for value",
	})
	s.metrics.liquidity = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "polity_settlement_liquidity_tokens_total",
		Help: "fee tokens added as liquidity",
	})
	s.metrics.proceeds = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "polity_settlement_proceeds_total",
		Help: "value credited to the distribution pool",
	})
	return s, nil
}

// Settle splits the fee recipient's token balance by the liquidity weight,
// sends the liquidity share to the pair and swaps the rest into value for
// the distribution pool
func (s *Settler) Settle(ctx context.Context, caller ledger.Address) (Result, error) {
	var ret Result
	if !s.config.Ledger.IsOperator(caller) {
		return ret, fmt.Errorf(
			"%w: caller %s is neither the president nor the automation address",
			ledger.ErrUnauthorized,
			caller,
		)
	}
	release, err := s.guard.Acquire()
	if err != nil {
		return ret, err
	}
	defer release()
	recipient := s.config.Ledger.FeeRecipient()
	if recipient.IsNull() {
		return ret, fmt.Errorf("%w: no fee recipient configured", ledger.ErrInvalidState)
	}
	balance := s.config.Token.BalanceOf(recipient)
	if balance == 0 || balance < s.config.MinBatch {
		return ret, nil
	}
	sum := s.config.Ledger.GetSumOfWeight()
	if sum > 0 {
		share := new(uint256.Int).SetUint64(balance)
		share.Mul(share, uint256.NewInt(s.config.Ledger.GetWeight(ledger.FeeLiquidity)))
		share.Div(share, uint256.NewInt(sum))
		ret.Liquidity = share.Uint64()
	}
	ret.Swapped = balance - ret.Liquidity
	router := s.config.Router
	if ret.Liquidity > 0 {
		if _, err := s.config.Token.Transfer(recipient, router.PairAddress(), ret.Liquidity); err != nil {
			return Result{}, fmt.Errorf("transfer liquidity share: %w", err)
		}
		if err := router.AddLiquidity(ctx, ret.Liquidity); err != nil {
			return Result{}, fmt.Errorf("add liquidity: %w", err)
		}
	}
	if ret.Swapped > 0 {
		if _, err := s.config.Token.Transfer(recipient, router.Address(), ret.Swapped); err != nil {
			return Result{}, fmt.Errorf("transfer swap amount: %w", err)
		}
		ret.Proceeds, err = router.SwapForValue(ctx, ret.Swapped)
		if err != nil {
			return Result{}, fmt.Errorf("swap for value: %w", err)
		}
		if err := s.config.Ledger.OnValueReceived(ret.Proceeds); err != nil {
			return Result{}, err
		}
	}
	s.metrics.runs.Inc()
	s.metrics.swapped.Add(float64(ret.Swapped))
	s.metrics.liquidity.Add(float64(ret.Liquidity))
	s.metrics.proceeds.Add(float64(ret.Proceeds))
	s.journal.Emit(
		CompletedEventType,
		CompletedEvent{Result: ret, Caller: caller},
	)
	s.logger.Info(
		"settled fees",
		"liquidity", ret.Liquidity,
		"swapped", ret.Swapped,
		"proceeds", ret.Proceeds,
	)
	return ret, nil
}
