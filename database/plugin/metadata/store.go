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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/polity/database/models"
	"github.com/blinklabs-io/polity/database/plugin"
	"github.com/blinklabs-io/polity/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	// Register built-in metadata plugins
	_ "github.com/blinklabs-io/polity/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/polity/database/plugin/metadata/sqlite"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Governance
	GetHolders(types.Txn) ([]models.Holder, error)
	GetHolder([]byte, types.Txn) (*models.Holder, error)
	SetHolder(*models.Holder, types.Txn) error
	GetTallyEntries(types.Txn) ([]models.TallyEntry, error)
	SetTallyEntry(*models.TallyEntry, types.Txn) error
	GetRoles(types.Txn) ([]models.Role, error)
	SetRole(*models.Role, types.Txn) error
	GetGovernanceState(types.Txn) (*models.GovernanceState, error)
	SetGovernanceState(*models.GovernanceState, types.Txn) error
	GetFeeCategories(types.Txn) ([]models.FeeCategory, error)
	SetFeeCategory(*models.FeeCategory, types.Txn) error
	GetFeeExemptions(types.Txn) ([]models.FeeExemption, error)
	SetFeeExemption(*models.FeeExemption, types.Txn) error

	// Token
	GetTokenBalances(types.Txn) ([]models.TokenBalance, error)
	SetTokenBalance(*models.TokenBalance, types.Txn) error
	GetTokenAllowances(types.Txn) ([]models.TokenAllowance, error)
	SetTokenAllowance(*models.TokenAllowance, types.Txn) error
	GetTokenSupply(types.Txn) (*models.TokenSupply, error)
	SetTokenSupply(*models.TokenSupply, types.Txn) error
	GetValueAccounts(types.Txn) ([]models.ValueAccount, error)
	SetValueAccount(*models.ValueAccount, types.Txn) error
}

// New returns the started metadata plugin selected by name
func New(
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	p, err := plugin.StartPlugin(
		plugin.PluginTypeMetadata,
		pluginName,
		logger,
		promRegistry,
	)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
