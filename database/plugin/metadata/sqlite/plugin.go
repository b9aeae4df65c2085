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

package sqlite

import (
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/polity/database/plugin"
)

var (
	cmdlineOptions = struct {
		dataDir        string
		vacuumInterval string
	}{
		dataDir:        ".polity",
		vacuumInterval: DefaultVacuumInterval.String(),
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "SQLite relational database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Data directory for sqlite storage (empty for in-memory)",
					DefaultValue: cmdlineOptions.dataDir,
					Dest:         &cmdlineOptions.dataDir,
				},
				{
					Name:         "vacuum-interval",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Interval between VACUUM runs (0 to disable)",
					DefaultValue: cmdlineOptions.vacuumInterval,
					Dest:         &cmdlineOptions.vacuumInterval,
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	dataDir := cmdlineOptions.dataDir
	vacuumInterval := cmdlineOptions.vacuumInterval
	cmdlineOptionsMutex.RUnlock()

	interval, err := time.ParseDuration(vacuumInterval)
	if err != nil {
		return plugin.NewErrorPlugin(
			fmt.Errorf("invalid vacuum-interval %q: %w", vacuumInterval, err),
		)
	}
	p, err := NewWithOptions(
		WithDataDir(dataDir),
		WithVacuumInterval(interval),
		// Logger and promRegistry are provided through Configure
	)
	if err != nil {
		// Return a plugin that defers the error to Start()
		return plugin.NewErrorPlugin(err)
	}
	return p
}
