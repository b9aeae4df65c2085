package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig() {
	globalConfig = defaultConfig()
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "test-polity.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
databasePath: "/var/lib/polity"
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 9001
shutdownTimeout: "10s"
tracing: true
governance:
  maxFeeSum: 25
  restrictionQuota: 5
  restrictionWindow: "48h"
genesis:
  president: "0x0101010101010101010101010101010101010101"
  holder: "0x0202020202020202020202020202020202020202"
  supply: 5000
  monarchyDuration: "1h"
  weights: [1, 2, 3, 4, 5]
settlement:
  interval: "5m"
  router: "0x1414141414141414141414141414141414141414"
  pair: "0x1515151515151515151515151515151515151515"
  rate: 2000000
  minBatch: 10
`
	cfg, err := LoadConfig(writeConfigFile(t, yamlContent))
	require.NoError(t, err)

	expected := &Config{
		MetadataPlugin:  DefaultMetadataPlugin,
		BlobPlugin:      DefaultBlobPlugin,
		DatabasePath:    "/var/lib/polity",
		BindAddr:        "127.0.0.1",
		ShutdownTimeout: "10s",
		ApiPort:         9000,
		MetricsPort:     9001,
		Tracing:         true,
		Governance: GovernanceConfig{
			MaxFeeSum:         25,
			RestrictionQuota:  5,
			RestrictionWindow: "48h",
		},
		Genesis: GenesisConfig{
			President:        "0x0101010101010101010101010101010101010101",
			Holder:           "0x0202020202020202020202020202020202020202",
			Supply:           5000,
			MonarchyDuration: "1h",
			Weights:          []uint64{1, 2, 3, 4, 5},
		},
		Settlement: SettlementConfig{
			Interval: "5m",
			Router:   "0x1414141414141414141414141414141414141414",
			Pair:     "0x1515151515151515151515151515151515151515",
			Rate:     2000000,
			MinBatch: 10,
		},
	}
	assert.Equal(t, expected, cfg)
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, []uint64{5, 5, 5, 5, 10}, cfg.Genesis.Weights)
	assert.Equal(t, uint64(30), cfg.Governance.MaxFeeSum)
	assert.Equal(t, uint64(3), cfg.Governance.RestrictionQuota)
}

func TestLoad_ConfigSection(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
config:
  apiPort: 7000
  genesis:
    supply: 42
database:
  metadata:
    plugin: postgres
  blob:
    plugin: badger
`
	cfg, err := LoadConfig(writeConfigFile(t, yamlContent))
	require.NoError(t, err)
	assert.Equal(t, uint(7000), cfg.ApiPort)
	assert.Equal(t, uint64(42), cfg.Genesis.Supply)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	assert.Equal(t, "badger", cfg.BlobPlugin)
	// Untouched values keep their defaults
	assert.Equal(t, DefaultMonarchyDuration, cfg.Genesis.MonarchyDuration)
	assert.Equal(t, uint64(30), cfg.Governance.MaxFeeSum)
	assert.Equal(t, uint64(3), cfg.Governance.RestrictionQuota)
	assert.Equal(t, []uint64{5, 5, 5, 5, 10}, cfg.Genesis.Weights)
	assert.Equal(t, ".polity", cfg.DatabasePath)
	assert.Equal(t, "0.0.0.0", cfg.BindAddr)
}

func TestLoad_ConfigSectionKeepsDefaults(t *testing.T) {
	resetGlobalConfig()
	cfg, err := LoadConfig(writeConfigFile(t, "config:\n  apiPort: 7000\n"))
	require.NoError(t, err)
	expected := defaultConfig()
	expected.ApiPort = 7000
	assert.Equal(t, expected, cfg)
}

func TestLoad_ConfigSectionNested(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
config:
  governance:
    maxFeeSum: 40
  genesis:
    weights: [1, 2, 3, 4, 5]
`
	cfg, err := LoadConfig(writeConfigFile(t, yamlContent))
	require.NoError(t, err)
	assert.Equal(t, uint64(40), cfg.Governance.MaxFeeSum)
	assert.Equal(t, uint64(3), cfg.Governance.RestrictionQuota)
	assert.Equal(t, DefaultRestrictionWindow, cfg.Governance.RestrictionWindow)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, cfg.Genesis.Weights)
	assert.Equal(t, uint64(1_000_000_000), cfg.Genesis.Supply)
	assert.Equal(t, DefaultBlobPlugin, cfg.BlobPlugin)
	assert.Equal(t, DefaultMetadataPlugin, cfg.MetadataPlugin)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("POLITY_API_PORT", "9100")
	t.Setenv("POLITY_GENESIS_WEIGHTS", "1,1,1,1,2")
	t.Setenv("POLITY_SETTLEMENT_MIN_BATCH", "50")
	t.Setenv("NUMBER_OF_RESTRICTION", "7")
	t.Setenv("DAY_BEFORE_RESET", "12h")
	t.Setenv("POLITY_DATABASE_METADATA_PLUGIN", "postgres")

	cfg, err := LoadConfig(writeConfigFile(t, "apiPort: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Equal(t, []uint64{1, 1, 1, 1, 2}, cfg.Genesis.Weights)
	assert.Equal(t, uint64(50), cfg.Settlement.MinBatch)
	assert.Equal(t, uint64(7), cfg.Governance.RestrictionQuota)
	assert.Equal(t, "12h", cfg.Governance.RestrictionWindow)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
}

func TestLoad_InvalidFile(t *testing.T) {
	resetGlobalConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfigFile(t, "apiPort: [not a port\n"))
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
