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

package postgres

import (
	"sync"

	"github.com/blinklabs-io/polity/database/plugin"
)

// pluginOptions is the target of the registered plugin options. The
// password has no default and must come from the config file or environment
type pluginOptions struct {
	conn     ConnConfig
	dsn      string
	port     uint64
	maxConns uint64
}

var (
	cmdlineOptions      pluginOptions
	cmdlineOptionsMutex sync.RWMutex
)

func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions = pluginOptions{
		conn: ConnConfig{}.withDefaults(),
		port: defaultPort,
		// Postgres serves concurrent API readers, sqlite does not
		maxConns: defaultMaxConns,
	}
}

func stringOption(name, description, def string, dest *string) plugin.PluginOption {
	return plugin.PluginOption{
		Name:         name,
		Type:         plugin.PluginOptionTypeString,
		Description:  description,
		DefaultValue: def,
		Dest:         dest,
	}
}

func uintOption(name, description string, def uint64, dest *uint64) plugin.PluginOption {
	return plugin.PluginOption{
		Name:         name,
		Type:         plugin.PluginOptionTypeUint,
		Description:  description,
		DefaultValue: def,
		Dest:         dest,
	}
}

func init() {
	initCmdlineOptions()
	o := &cmdlineOptions
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "postgres",
			Description:        "Postgres relational database (shared deployments)",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				stringOption("host", "Postgres host", defaultHost, &o.conn.Host),
				uintOption("port", "Postgres port", defaultPort, &o.port),
				stringOption("user", "Postgres user", defaultUser, &o.conn.User),
				stringOption("password", "Postgres password (required)", "", &o.conn.Password),
				stringOption("database", "Postgres database name", defaultDatabase, &o.conn.Database),
				stringOption("ssl-mode", "Postgres sslmode", defaultSSLMode, &o.conn.SSLMode),
				stringOption("timezone", "Postgres TimeZone", defaultTimeZone, &o.conn.TimeZone),
				uintOption("max-conns", "Maximum number of open connections", defaultMaxConns, &o.maxConns),
				stringOption("dsn", "Full Postgres DSN (overrides other options when set)", "", &o.dsn),
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	opts := cmdlineOptions
	cmdlineOptionsMutex.RUnlock()

	conn := opts.conn
	conn.Port = uint(min(opts.port, 1<<16-1))
	p, err := NewWithOptions(
		WithConnConfig(conn),
		WithDSN(opts.dsn),
		WithMaxConns(int(min(opts.maxConns, 1<<16))), //nolint:gosec
	)
	if err != nil {
		// Return a plugin that defers the error to Start()
		return plugin.NewErrorPlugin(err)
	}
	return p
}
