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
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultMaxFeeSum         = 30
	DefaultRestrictionQuota  = 3
	DefaultRestrictionWindow = 24 * time.Hour
)

// Params are the fixed governance parameters of a ledger
type Params struct {
	// MaxFeeSum caps the sum of all fee weights, in percent
	MaxFeeSum uint64
	// RestrictionQuota is the number of restrictions allowed per window
	RestrictionQuota uint64
	// RestrictionWindow is the length of a quota window
	RestrictionWindow time.Duration
}

func DefaultParams() Params {
	return Params{
		MaxFeeSum:         DefaultMaxFeeSum,
		RestrictionQuota:  DefaultRestrictionQuota,
		RestrictionWindow: DefaultRestrictionWindow,
	}
}

func (p Params) validate() error {
	if p.MaxFeeSum > 100 {
		return fmt.Errorf(
			"%w: max fee sum %d exceeds 100",
			ErrInvalidArgument,
			p.MaxFeeSum,
		)
	}
	if p.RestrictionWindow <= 0 {
		return fmt.Errorf(
			"%w: restriction window must be positive",
			ErrInvalidArgument,
		)
	}
	return nil
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// BalanceReader reports the token balance of an address
type BalanceReader interface {
	BalanceOf(Address) uint64
}

// Payer delivers native value to an address
type Payer interface {
	Pay(to Address, amount uint64) error
}

type LedgerStateConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Clock        Clock
	Journal      *Journal
	Balances     BalanceReader
	Payer        Payer
	Params       Params
}

// governance holds the singleton governance and distribution values
type governance struct {
	monarchyEnd  time.Time
	quotaResetAt time.Time
	automation   Address
	feeRecipient Address
	quota        uint64
	totalAccrued uint64
	poolBalance  uint64
	abdicated    bool
	initialized  bool
}

// LedgerState holds the vote ledger and the fee distribution engine. It
// performs no locking: the caller serializes every operation and read
type LedgerState struct {
	config    LedgerStateConfig
	logger    *slog.Logger
	clock     Clock
	journal   *Journal
	metrics   stateMetrics
	holders   map[Address]Holder
	tally     map[TallyKey]uint64
	exempt    map[Address]struct{}
	voteLocks *KeyedGuard[Address]
	distLock  *Guard
	gov       governance
	roles     [NumBranches]Address
	weights   [NumFeeCategories]uint64
	received  [NumFeeCategories]uint64
}

func NewLedgerState(cfg LedgerStateConfig) (*LedgerState, error) {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.Journal == nil {
		cfg.Journal = NewJournal(nil)
	}
	if cfg.Params == (Params{}) {
		cfg.Params = DefaultParams()
	}
	if err := cfg.Params.validate(); err != nil {
		return nil, err
	}
	ls := &LedgerState{
		config:    cfg,
		logger:    cfg.Logger.With("component", "ledger"),
		clock:     cfg.Clock,
		journal:   cfg.Journal,
		holders:   make(map[Address]Holder),
		tally:     make(map[TallyKey]uint64),
		exempt:    make(map[Address]struct{}),
		voteLocks: NewKeyedGuard[Address]("vote"),
		distLock:  NewGuard("distribution"),
	}
	ls.metrics.init(cfg.PromRegistry)
	return ls, nil
}

// Params returns the governance parameters
func (ls *LedgerState) Params() Params {
	return ls.config.Params
}

// SetBalanceReader sets the source of token balances
func (ls *LedgerState) SetBalanceReader(b BalanceReader) {
	ls.config.Balances = b
}

// SetPayer sets the value sink used by withdrawals
func (ls *LedgerState) SetPayer(p Payer) {
	ls.config.Payer = p
}

// Initialized reports whether genesis has been applied
func (ls *LedgerState) Initialized() bool {
	return ls.gov.initialized
}

func (ls *LedgerState) now() time.Time {
	return ls.clock.Now()
}

func (ls *LedgerState) balanceOf(addr Address) uint64 {
	if ls.config.Balances == nil || addr.IsNull() {
		return 0
	}
	return ls.config.Balances.BalanceOf(addr)
}

func (ls *LedgerState) president() Address {
	return ls.roles[CategoryPresident]
}

// requirePresident fails unless caller holds the president role
func (ls *LedgerState) requirePresident(caller Address) error {
	if caller.IsNull() || caller != ls.president() {
		return fmt.Errorf("%w: caller %s is not the president", ErrUnauthorized, caller)
	}
	return nil
}

// requireOperator fails unless caller is the president or the automation address
func (ls *LedgerState) requireOperator(caller Address) error {
	if ls.IsOperator(caller) {
		return nil
	}
	return fmt.Errorf(
		"%w: caller %s is neither the president nor the automation address",
		ErrUnauthorized,
		caller,
	)
}

// IsOperator reports whether addr may trigger distribution and settlement
func (ls *LedgerState) IsOperator(addr Address) bool {
	if addr.IsNull() {
		return false
	}
	return addr == ls.president() || addr == ls.gov.automation
}

// Automation returns the automation address
func (ls *LedgerState) Automation() Address {
	return ls.gov.automation
}

// SetAutomation replaces the automation address. The null address disables it
func (ls *LedgerState) SetAutomation(caller Address, addr Address) error {
	if err := ls.requirePresident(caller); err != nil {
		return err
	}
	ls.updateGovernance(func(g *governance) {
		g.automation = addr
	})
	ls.journal.Emit(
		AutomationChangedEventType,
		AutomationChangedEvent{Automation: addr},
	)
	return nil
}
