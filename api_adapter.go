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

package polity

import (
	"github.com/blinklabs-io/polity/api"
	"github.com/blinklabs-io/polity/ledger"
)

// apiAdapter exposes a Node through the api.PolityNode interface
type apiAdapter struct {
	*Node
}

var _ api.PolityNode = apiAdapter{}

func (a apiAdapter) Status() (api.StatusInfo, error) {
	st, err := a.Node.Status()
	if err != nil {
		return api.StatusInfo{}, err
	}
	return api.StatusInfo{
		Ledger:      st.Status,
		TotalSupply: st.TotalSupply,
		VaultTotal:  st.VaultTotal,
		Sequence:    st.Sequence,
	}, nil
}

func (a apiAdapter) Account(addr ledger.Address) (api.AccountInfo, error) {
	acct, err := a.Node.Account(addr)
	if err != nil {
		return api.AccountInfo{}, err
	}
	return api.AccountInfo{
		Address:   acct.Address,
		Holder:    acct.Holder,
		Balance:   acct.Balance,
		Value:     acct.Value,
		FeeExempt: acct.FeeExempt,
	}, nil
}
