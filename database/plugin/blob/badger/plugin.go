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

package badger

import (
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/polity/database/plugin"
)

// pluginOptions is the target of the registered plugin options
type pluginOptions struct {
	dataDir        string
	gcInterval     string
	blockCacheSize uint64
	indexCacheSize uint64
	gcEnabled      bool
	syncWrites     bool
}

func defaultPluginOptions() pluginOptions {
	return pluginOptions{
		dataDir:        ".polity",
		gcInterval:     DefaultGcInterval.String(),
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
		gcEnabled:      true,
	}
}

var (
	cmdlineOptions      = defaultPluginOptions()
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	o := &cmdlineOptions
	def := defaultPluginOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "badger",
			Description:        "BadgerDB key-value store for the operation journal",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Data directory for the journal",
					DefaultValue: def.dataDir,
					Dest:         &o.dataDir,
				},
				{
					Name:         "block-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Badger block cache size in bytes",
					DefaultValue: def.blockCacheSize,
					Dest:         &o.blockCacheSize,
				},
				{
					Name:         "index-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Badger index cache size in bytes",
					DefaultValue: def.indexCacheSize,
					Dest:         &o.indexCacheSize,
				},
				{
					Name:         "gc",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "Enable value log garbage collection",
					DefaultValue: def.gcEnabled,
					Dest:         &o.gcEnabled,
				},
				{
					Name:         "gc-interval",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Interval between value log GC passes",
					DefaultValue: def.gcInterval,
					Dest:         &o.gcInterval,
				},
				{
					Name:         "sync-writes",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "Fsync every journal commit",
					DefaultValue: def.syncWrites,
					Dest:         &o.syncWrites,
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	opts := cmdlineOptions
	cmdlineOptionsMutex.RUnlock()
	gcInterval, err := time.ParseDuration(opts.gcInterval)
	if err != nil {
		// Return a plugin that defers the error to Start()
		return plugin.NewErrorPlugin(
			fmt.Errorf("invalid gc-interval %q: %w", opts.gcInterval, err),
		)
	}
	return NewWithOptions(
		WithDataDir(opts.dataDir),
		WithBlockCacheSize(opts.blockCacheSize),
		WithIndexCacheSize(opts.indexCacheSize),
		WithGc(opts.gcEnabled),
		WithGcInterval(gcInterval),
		WithSyncWrites(opts.syncWrites),
	)
}
