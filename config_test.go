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
	"testing"
	"time"

	"github.com/blinklabs-io/polity/ledger"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, ledger.DefaultParams(), cfg.params)
	assert.Equal(t, DefaultGenesisSupply, cfg.genesis.Supply)
	assert.Equal(t, DefaultMonarchyDuration, cfg.genesis.MonarchyDuration)
	assert.Equal(t, DefaultGenesisWeights, cfg.genesis.Weights)
	assert.Empty(t, cfg.dataDir)
	assert.Empty(t, cfg.apiListenAddress)
	assert.False(t, cfg.tracing)
}

func TestConfigOptions(t *testing.T) {
	params := ledger.Params{
		MaxFeeSum:         20,
		RestrictionQuota:  1,
		RestrictionWindow: time.Hour,
	}
	cfg := NewConfig(
		WithDatabasePath("/tmp/polity"),
		WithBlobPlugin("badger"),
		WithMetadataPlugin("postgres"),
		WithParams(params),
		WithTracing(true),
		WithTracingStdout(true),
		WithShutdownTimeout(5*time.Second),
		WithApiListenAddress(":9000"),
	)
	assert.Equal(t, "/tmp/polity", cfg.dataDir)
	assert.Equal(t, "badger", cfg.blobPlugin)
	assert.Equal(t, "postgres", cfg.metadataPlugin)
	assert.Equal(t, params, cfg.params)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
	assert.Equal(t, ":9000", cfg.apiListenAddress)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:   "null president",
			modify: func(c *Config) { c.genesis.President = ledger.NullAddress },
			errMsg: "president",
		},
		{
			name:   "supply without holder",
			modify: func(c *Config) { c.genesis.Holder = ledger.NullAddress },
			errMsg: "holder",
		},
		{
			name:   "router without pair",
			modify: func(c *Config) { c.settlement.Pair = ledger.NullAddress },
			errMsg: "together",
		},
		{
			name:   "router equals pair",
			modify: func(c *Config) { c.settlement.Pair = c.settlement.Router },
			errMsg: "differ",
		},
		{
			name:   "zero rate",
			modify: func(c *Config) { c.settlement.Rate = 0 },
			errMsg: "rate",
		},
		{
			name: "interval without router",
			modify: func(c *Config) {
				c.settlement = SettlementConfig{Interval: time.Minute}
			},
			errMsg: "requires a router",
		},
		{
			name:   "negative shutdown timeout",
			modify: func(c *Config) { c.shutdownTimeout = -time.Second },
			errMsg: "shutdown timeout",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig(
				WithGenesis(testGenesis()),
				WithSettlement(testSettlement()),
			)
			tc.modify(&cfg)
			n := &Node{config: cfg}
			err := n.configValidate()
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}
}
