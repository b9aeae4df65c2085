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
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	conn := ConnConfig{
		Host:     "db.local",
		Port:     6543,
		User:     "polity",
		Password: "secret",
		Database: "polity",
		SSLMode:  "require",
		TimeZone: "Europe/Berlin",
	}
	m, err := NewWithOptions(
		WithConnConfig(conn),
		WithMaxConns(12),
		WithLogger(logger),
		WithPromRegistry(reg),
	)
	require.NoError(t, err)
	assert.Equal(t, conn, m.conn)
	assert.Equal(t, 12, m.maxConns)
	assert.Same(t, logger, m.logger)
	assert.Equal(t, prometheus.Registerer(reg), m.promRegistry)
}

func TestNewWithOptionsDefaults(t *testing.T) {
	m, err := NewWithOptions(WithConnConfig(ConnConfig{User: "polity"}))
	require.NoError(t, err)
	assert.Equal(t, "localhost", m.conn.Host)
	assert.Equal(t, uint(5432), m.conn.Port)
	assert.Equal(t, "polity", m.conn.User)
	assert.Equal(t, "postgres", m.conn.Database)
	assert.Equal(t, "disable", m.conn.SSLMode)
	assert.Equal(t, "UTC", m.conn.TimeZone)
	assert.Equal(t, 100, m.maxConns)
}

func TestConnString(t *testing.T) {
	m, err := NewWithOptions(
		WithConnConfig(ConnConfig{
			Host:     "db.local",
			Password: "secret",
			Database: "polity",
		}),
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		"host=db.local user=postgres password=secret dbname=polity port=5432 sslmode=disable TimeZone=UTC",
		m.connString(),
	)

	m, err = NewWithOptions(WithDSN("  postgres://u:p@h/db  "))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h/db", m.connString())
}

func TestNewFromCmdlineOptions(t *testing.T) {
	t.Cleanup(initCmdlineOptions)
	cmdlineOptionsMutex.Lock()
	cmdlineOptions.conn.Host = "pg.internal"
	cmdlineOptions.port = 6000
	cmdlineOptions.maxConns = 1 << 20
	cmdlineOptionsMutex.Unlock()

	p := NewFromCmdlineOptions()
	m, ok := p.(*MetadataStorePostgres)
	require.True(t, ok)
	assert.Equal(t, "pg.internal", m.conn.Host)
	assert.Equal(t, uint(6000), m.conn.Port)
	assert.Equal(t, 1<<16, m.maxConns)
}

func TestConfigureKeepsExistingWhenNil(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := &MetadataStorePostgres{logger: logger}
	m.Configure(nil, nil)
	assert.Same(t, logger, m.logger)
	reg := prometheus.NewRegistry()
	m.Configure(nil, reg)
	assert.Equal(t, prometheus.Registerer(reg), m.promRegistry)
}

func TestCloseWithoutStart(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	require.NoError(t, m.Close())
}
