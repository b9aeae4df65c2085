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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeNone PluginType = iota
	PluginTypeBlob
	PluginTypeMetadata
)

// EnvVarPrefix is prepended to plugin option environment variable names
const EnvVarPrefix = "POLITY"

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return ""
	}
}

func PluginTypeFromString(pluginTypeStr string) PluginType {
	switch pluginTypeStr {
	case "blob":
		return PluginTypeBlob
	case "metadata":
		return PluginTypeMetadata
	default:
		return PluginTypeNone
	}
}

type PluginOptionType int

const (
	PluginOptionTypeNone PluginOptionType = iota
	PluginOptionTypeString
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var (
	pluginEntries      []PluginEntry
	pluginEntriesMutex sync.RWMutex
)

// Register adds a plugin to the registry. Registering the same type and name
// again replaces the previous entry.
func Register(pluginEntry PluginEntry) {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	for i, entry := range pluginEntries {
		if entry.Type == pluginEntry.Type && entry.Name == pluginEntry.Name {
			pluginEntries[i] = pluginEntry
			return
		}
	}
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns the registered plugins of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	ret := []PluginEntry{}
	for _, plugin := range pluginEntries {
		if plugin.Type == pluginType {
			ret = append(ret, plugin)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin, or nil if it is not registered
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	pluginEntriesMutex.RLock()
	var newFunc func() Plugin
	for _, plugin := range pluginEntries {
		if plugin.Type == pluginType && plugin.Name == pluginName {
			newFunc = plugin.NewFromOptionsFunc
			break
		}
	}
	pluginEntriesMutex.RUnlock()
	if newFunc == nil {
		return nil
	}
	return newFunc()
}

func optionFlagName(p PluginEntry, opt PluginOption) string {
	return fmt.Sprintf("%s-%s-%s", PluginTypeName(p.Type), p.Name, opt.Name)
}

func optionEnvName(p PluginEntry, opt PluginOption) string {
	ret := fmt.Sprintf(
		"%s_%s_%s_%s",
		EnvVarPrefix,
		PluginTypeName(p.Type),
		p.Name,
		opt.Name,
	)
	return strings.ToUpper(strings.ReplaceAll(ret, "-", "_"))
}

// PopulateCmdlineOptions adds a flag to the flag set for every plugin option
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			flagName := optionFlagName(p, opt)
			switch opt.Type {
			case PluginOptionTypeString:
				dest, ok := opt.Dest.(*string)
				if !ok {
					return fmt.Errorf("invalid destination for option %s", flagName)
				}
				defVal, _ := opt.DefaultValue.(string)
				fs.StringVar(dest, flagName, defVal, opt.Description)
			case PluginOptionTypeBool:
				dest, ok := opt.Dest.(*bool)
				if !ok {
					return fmt.Errorf("invalid destination for option %s", flagName)
				}
				defVal, _ := opt.DefaultValue.(bool)
				fs.BoolVar(dest, flagName, defVal, opt.Description)
			case PluginOptionTypeInt:
				dest, ok := opt.Dest.(*int)
				if !ok {
					return fmt.Errorf("invalid destination for option %s", flagName)
				}
				defVal, _ := opt.DefaultValue.(int)
				fs.IntVar(dest, flagName, defVal, opt.Description)
			case PluginOptionTypeUint:
				dest, ok := opt.Dest.(*uint64)
				if !ok {
					return fmt.Errorf("invalid destination for option %s", flagName)
				}
				defVal, _ := opt.DefaultValue.(uint64)
				fs.Uint64Var(dest, flagName, defVal, opt.Description)
			default:
				return fmt.Errorf(
					"unknown plugin option type %d for option %s",
					opt.Type,
					flagName,
				)
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from a config file. The map is keyed
// by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for pluginTypeStr, plugins := range pluginConfig {
		pluginType := PluginTypeFromString(pluginTypeStr)
		if pluginType == PluginTypeNone {
			return fmt.Errorf("unknown plugin type: %s", pluginTypeStr)
		}
		for pluginName, options := range plugins {
			for optionName, value := range options {
				if err := SetPluginOption(pluginType, pluginName, optionName, normalizeOptionValue(value)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// normalizeOptionValue converts YAML-decoded numbers into the types expected
// by SetPluginOption
func normalizeOptionValue(value any) any {
	switch v := value.(type) {
	case int64:
		return int(v)
	case uint:
		return uint64(v)
	case float64:
		if v >= 0 && v == float64(uint64(v)) {
			return uint64(v)
		}
	}
	return value
}

// ProcessEnvVars applies plugin options from environment variables
func ProcessEnvVars() error {
	pluginEntriesMutex.RLock()
	entries := make([]PluginEntry, len(pluginEntries))
	copy(entries, pluginEntries)
	pluginEntriesMutex.RUnlock()
	for _, p := range entries {
		for _, opt := range p.Options {
			envName := optionEnvName(p, opt)
			envVal, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			var value any
			switch opt.Type {
			case PluginOptionTypeString:
				value = envVal
			case PluginOptionTypeBool:
				v, err := strconv.ParseBool(envVal)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", envName, err)
				}
				value = v
			case PluginOptionTypeInt:
				v, err := strconv.Atoi(envVal)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", envName, err)
				}
				value = v
			case PluginOptionTypeUint:
				v, err := strconv.ParseUint(envVal, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", envName, err)
				}
				value = v
			default:
				continue
			}
			if err := SetPluginOption(p.Type, p.Name, opt.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
