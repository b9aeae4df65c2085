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
	"log/slog"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultHost     = "localhost"
	defaultPort     = 5432
	defaultUser     = "postgres"
	defaultDatabase = "postgres"
	defaultSSLMode  = "disable"
	defaultTimeZone = "UTC"
	defaultMaxConns = 100
)

// ConnConfig holds the connection parameters used when no DSN is given.
// Empty fields fall back to the local development defaults
type ConnConfig struct {
	Host     string
	User     string
	Password string
	Database string
	SSLMode  string
	TimeZone string
	Port     uint
}

func (c ConnConfig) withDefaults() ConnConfig {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.User == "" {
		c.User = defaultUser
	}
	if c.Database == "" {
		c.Database = defaultDatabase
	}
	if c.SSLMode == "" {
		c.SSLMode = defaultSSLMode
	}
	if c.TimeZone == "" {
		c.TimeZone = defaultTimeZone
	}
	return c
}

// DSN renders the parameters as a key=value connection string
func (c ConnConfig) DSN() string {
	parts := []string{
		"host=" + c.Host,
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Database,
		"port=" + strconv.FormatUint(uint64(c.Port), 10),
		"sslmode=" + c.SSLMode,
	}
	if c.TimeZone != "" {
		parts = append(parts, "TimeZone="+c.TimeZone)
	}
	return strings.Join(parts, " ")
}

type PostgresOptionFunc func(*MetadataStorePostgres)

func WithLogger(logger *slog.Logger) PostgresOptionFunc {
	return func(d *MetadataStorePostgres) {
		d.logger = logger
	}
}

func WithPromRegistry(
	registry prometheus.Registerer,
) PostgresOptionFunc {
	return func(d *MetadataStorePostgres) {
		d.promRegistry = registry
	}
}

// WithConnConfig sets the individual connection parameters
func WithConnConfig(conn ConnConfig) PostgresOptionFunc {
	return func(d *MetadataStorePostgres) {
		d.conn = conn
	}
}

// WithDSN sets a full connection string, which takes precedence over
// WithConnConfig
func WithDSN(dsn string) PostgresOptionFunc {
	return func(d *MetadataStorePostgres) {
		d.dsn = strings.TrimSpace(dsn)
	}
}

// WithMaxConns limits the size of the connection pool
func WithMaxConns(maxConns int) PostgresOptionFunc {
	return func(d *MetadataStorePostgres) {
		d.maxConns = maxConns
	}
}
