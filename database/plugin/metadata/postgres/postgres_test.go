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
	"os"
	"strconv"
	"testing"

	"github.com/blinklabs-io/polity/database/models"
	"github.com/blinklabs-io/polity/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isPostgresConfigured checks whether a test server was provided through
// plugin options or environment variables
func isPostgresConfigured() bool {
	cmdlineOptionsMutex.RLock()
	password := cmdlineOptions.conn.Password
	dsn := cmdlineOptions.dsn
	cmdlineOptionsMutex.RUnlock()
	if password != "" || dsn != "" {
		return true
	}
	return os.Getenv("POSTGRES_PASSWORD") != "" ||
		os.Getenv("POSTGRES_DSN") != ""
}

func getTestPostgresOptions() []PostgresOptionFunc {
	conn := ConnConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: os.Getenv("POSTGRES_DATABASE"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
	}
	if conn.Database == "" {
		conn.Database = "polity_test"
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if p, err := strconv.ParseUint(v, 10, 16); err == nil {
			conn.Port = uint(p)
		}
	}
	return []PostgresOptionFunc{
		WithConnConfig(conn),
		WithDSN(os.Getenv("POSTGRES_DSN")),
	}
}

// newTestPostgresStore skips the test unless a postgres server is configured
func newTestPostgresStore(t *testing.T) *MetadataStorePostgres {
	t.Helper()
	if !isPostgresConfigured() {
		t.Skip(
			"Skipping postgres integration test: postgres not configured (set POSTGRES_PASSWORD or POSTGRES_DSN)",
		)
	}
	store, err := NewWithOptions(getTestPostgresOptions()...)
	require.NoError(t, err)
	require.NoError(t, store.Start())
	t.Cleanup(func() {
		// Leave the shared test database clean for the next run
		for _, table := range []string{
			"holder",
			"tally_entry",
			"role",
			"governance_state",
			"fee_category",
			"fee_exemption",
			"token_balance",
			"token_allowance",
			"token_supply",
			"value_account",
			"commit_timestamp",
		} {
			store.DB().Exec("DELETE FROM " + table) //nolint:errcheck
		}
		store.Close() //nolint:errcheck
	})
	return store
}

func TestPostgresHolderAndTally(t *testing.T) {
	store := newTestPostgresStore(t)
	addr := make([]byte, 20)
	addr[19] = 1
	require.NoError(t, store.SetHolder(&models.Holder{
		Address:  addr,
		LawIndex: types.Uint64(^uint64(0)),
	}, nil))
	holder, err := store.GetHolder(addr, nil)
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, types.Uint64(^uint64(0)), holder.LawIndex)

	txn := store.Transaction()
	require.NoError(t, store.SetTallyEntry(&models.TallyEntry{
		Candidate: addr,
		Category:  2,
		Weight:    500,
	}, txn))
	require.NoError(t, txn.Rollback())
	entries, err := store.GetTallyEntries(nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPostgresCommitTimestamp(t *testing.T) {
	store := newTestPostgresStore(t)
	require.NoError(t, store.SetCommitTimestamp(42, nil))
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}
