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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type SqliteOptionFunc func(*MetadataStoreSqlite)

func WithLogger(logger *slog.Logger) SqliteOptionFunc {
	return func(d *MetadataStoreSqlite) {
		d.logger = logger
	}
}

func WithPromRegistry(
	registry prometheus.Registerer,
) SqliteOptionFunc {
	return func(d *MetadataStoreSqlite) {
		d.promRegistry = registry
	}
}

// WithDataDir sets the directory holding the database file. An empty value
// keeps the store in memory
func WithDataDir(dataDir string) SqliteOptionFunc {
	return func(d *MetadataStoreSqlite) {
		d.dataDir = dataDir
	}
}

// WithVacuumInterval sets how often unused pages are reclaimed. Zero
// disables the periodic VACUUM
func WithVacuumInterval(interval time.Duration) SqliteOptionFunc {
	return func(d *MetadataStoreSqlite) {
		d.vacuumInterval = interval
	}
}
