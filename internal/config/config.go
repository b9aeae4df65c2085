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

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/polity/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "polity.config"

const (
	DefaultShutdownTimeout   = "30s"
	DefaultMonarchyDuration  = "720h"
	DefaultRestrictionWindow = "24h"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// GovernanceConfig holds the tunable governance parameters
type GovernanceConfig struct {
	MaxFeeSum         uint64 `yaml:"maxFeeSum"         split_words:"true"`
	RestrictionQuota  uint64 `yaml:"restrictionQuota"  envconfig:"NUMBER_OF_RESTRICTION"`
	RestrictionWindow string `yaml:"restrictionWindow" envconfig:"DAY_BEFORE_RESET"`
}

// GenesisConfig describes the state written on first start. Addresses are
// bech32 or 0x-prefixed hex
type GenesisConfig struct {
	President        string   `yaml:"president"`
	Automation       string   `yaml:"automation"`
	FeeRecipient     string   `yaml:"feeRecipient"     split_words:"true"`
	Holder           string   `yaml:"holder"`
	Supply           uint64   `yaml:"supply"`
	MonarchyDuration string   `yaml:"monarchyDuration" split_words:"true"`
	Weights          []uint64 `yaml:"weights"`
}

type SettlementConfig struct {
	Interval string `yaml:"interval"`
	Router   string `yaml:"router"`
	Pair     string `yaml:"pair"`
	// Rate is the value paid per token, in millionths
	Rate     uint64 `yaml:"rate"`
	MinBatch uint64 `yaml:"minBatch" split_words:"true"`
}

type Config struct {
	MetadataPlugin  string           `yaml:"metadataPlugin"  envconfig:"POLITY_DATABASE_METADATA_PLUGIN"`
	BlobPlugin      string           `yaml:"blobPlugin"      envconfig:"POLITY_DATABASE_BLOB_PLUGIN"`
	DatabasePath    string           `yaml:"databasePath"                                              split_words:"true"`
	BindAddr        string           `yaml:"bindAddr"                                                  split_words:"true"`
	ShutdownTimeout string           `yaml:"shutdownTimeout"                                           split_words:"true"`
	ApiPort         uint             `yaml:"apiPort"                                                   split_words:"true"`
	MetricsPort     uint             `yaml:"metricsPort"                                               split_words:"true"`
	Tracing         bool             `yaml:"tracing"`
	TracingStdout   bool             `yaml:"tracingStdout"                                             split_words:"true"`
	Governance      GovernanceConfig `yaml:"governance"`
	Genesis         GenesisConfig    `yaml:"genesis"`
	Settlement      SettlementConfig `yaml:"settlement"`
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		BindAddr:        "0.0.0.0",
		DatabasePath:    ".polity",
		ApiPort:         8080,
		MetricsPort:     12799,
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		ShutdownTimeout: DefaultShutdownTimeout,
		Governance: GovernanceConfig{
			MaxFeeSum:         30,
			RestrictionQuota:  3,
			RestrictionWindow: DefaultRestrictionWindow,
		},
		Genesis: GenesisConfig{
			Supply:           1_000_000_000,
			MonarchyDuration: DefaultMonarchyDuration,
			Weights:          []uint64{5, 5, 5, 5, 10},
		},
	}
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.polity/polity.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".polity", "polity.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/polity/polity.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/polity/polity.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		if tempCfg.Config.Kind != 0 {
			// Only keys present in the section are overwritten
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		pluginConfig := make(map[string]map[string]map[string]any)
		if tempCfg.Blob != nil {
			pluginConfig["blob"] = tempCfg.Blob
		}
		if tempCfg.Metadata != nil {
			pluginConfig["metadata"] = tempCfg.Metadata
		}
		if tempCfg.Database != nil {
			if tempCfg.Database.Blob != nil {
				if name, ok := extractPluginName(tempCfg.Database.Blob); ok {
					globalConfig.BlobPlugin = name
				}
				mergePluginSection(
					pluginConfig,
					"blob",
					pluginSection("blob", tempCfg.Database.Blob),
				)
			}
			if tempCfg.Database.Metadata != nil {
				if name, ok := extractPluginName(tempCfg.Database.Metadata); ok {
					globalConfig.MetadataPlugin = name
				}
				mergePluginSection(
					pluginConfig,
					"metadata",
					pluginSection("metadata", tempCfg.Database.Metadata),
				)
			}
		}
		if len(pluginConfig) > 0 {
			err = plugin.ProcessConfig(pluginConfig)
			if err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("polity", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// extractPluginName removes the "plugin" key from a database section and
// returns its value
func extractPluginName(section map[string]any) (string, bool) {
	pluginVal, exists := section["plugin"]
	if !exists {
		return "", false
	}
	name, ok := pluginVal.(string)
	if !ok {
		return "", false
	}
	delete(section, "plugin")
	return name, true
}

func pluginSection(
	sectionName string,
	section map[string]any,
) map[string]map[string]any {
	ret := make(map[string]map[string]any)
	for k, v := range section {
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				sectionName,
				k,
				v,
			)
		}
	}
	return ret
}

// mergePluginSection merges into any existing top-level section instead of
// overwriting it
func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	sectionName string,
	section map[string]map[string]any,
) {
	if pluginConfig[sectionName] == nil {
		pluginConfig[sectionName] = section
		return
	}
	maps.Copy(pluginConfig[sectionName], section)
}
