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

package polity

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/polity/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultGenesisSupply    uint64 = 1_000_000_000
	DefaultMonarchyDuration        = 30 * 24 * time.Hour
	DefaultShutdownTimeout         = 30 * time.Second
)

// DefaultGenesisWeights is the fee schedule applied at genesis when none is
// configured: president, senate, court, treasury, liquidity
var DefaultGenesisWeights = [ledger.NumFeeCategories]uint64{5, 5, 5, 5, 10}

// GenesisConfig describes the state created on first start
type GenesisConfig struct {
	President    ledger.Address
	Automation   ledger.Address
	FeeRecipient ledger.Address
	// Holder receives the entire initial supply
	Holder           ledger.Address
	Supply           uint64
	MonarchyDuration time.Duration
	Weights          [ledger.NumFeeCategories]uint64
}

// SettlementConfig controls the periodic conversion of collected fees. A zero
// interval disables the background loop, settlement can still be triggered
// on demand
type SettlementConfig struct {
	Router   ledger.Address
	Pair     ledger.Address
	Interval time.Duration
	// Rate is the value paid per token, in millionths
	Rate     uint64
	MinBatch uint64
}

type Config struct {
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	clock          ledger.Clock
	dataDir        string
	blobPlugin     string
	metadataPlugin string
	genesis        GenesisConfig
	settlement     SettlementConfig
	params         ledger.Params
	tracing        bool
	tracingStdout  bool
	// HTTP API listen address (empty = disabled)
	apiListenAddress string
	shutdownTimeout  time.Duration
}

func (n *Node) configValidate() error {
	g := n.config.genesis
	if g.President.IsNull() {
		return errors.New("genesis president must be set")
	}
	if g.Supply > 0 && g.Holder.IsNull() {
		return errors.New("genesis holder must be set when supply is non-zero")
	}
	s := n.config.settlement
	if s.Router.IsNull() != s.Pair.IsNull() {
		return errors.New(
			"settlement router and pair addresses must be set together",
		)
	}
	if !s.Router.IsNull() {
		if s.Router == s.Pair {
			return errors.New("settlement router and pair must differ")
		}
		if s.Rate == 0 {
			return errors.New("settlement rate must be non-zero")
		}
	}
	if s.Interval > 0 && s.Router.IsNull() {
		return fmt.Errorf(
			"settlement interval %s requires a router address",
			s.Interval,
		)
	}
	if n.config.shutdownTimeout < 0 {
		return fmt.Errorf(
			"invalid shutdown timeout: %s",
			n.config.shutdownTimeout,
		)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new polity config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		genesis: GenesisConfig{
			Supply:           DefaultGenesisSupply,
			MonarchyDuration: DefaultMonarchyDuration,
			Weights:          DefaultGenesisWeights,
		},
		params: ledger.DefaultParams(),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithClock overrides the time source used for the monarchy phase and the
// restriction quota window
func WithClock(clock ledger.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithParams specifies the governance parameters
func WithParams(params ledger.Params) ConfigOptionFunc {
	return func(c *Config) {
		c.params = params
	}
}

// WithGenesis specifies the state created on first start. It has no effect on
// an existing database
func WithGenesis(genesis GenesisConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.genesis = genesis
	}
}

// WithSettlement specifies the fee settlement router and schedule
func WithSettlement(settlement SettlementConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.settlement = settlement
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector at localhost:4318
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithApiListenAddress specifies the listen address for the HTTP API (e.g. ":8080"). An empty value disables it
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}
