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

package ledger

import (
	"fmt"
	"strings"
)

// Category is a ballot category. The four governance branches come first,
// followed by the open-ended law ballot
type Category uint8

const (
	CategoryPresident Category = iota
	CategorySenate
	CategoryCourt
	CategoryTreasury
	CategoryLaw
)

const (
	NumBranches   = 4
	NumCategories = 5
)

var categoryNames = [NumCategories]string{
	"president",
	"senate",
	"court",
	"treasury",
	"law",
}

// AllCategories lists every ballot category in order
func AllCategories() []Category {
	return []Category{
		CategoryPresident,
		CategorySenate,
		CategoryCourt,
		CategoryTreasury,
		CategoryLaw,
	}
}

func (c Category) IsBranch() bool {
	return c < NumBranches
}

func (c Category) String() string {
	if c >= NumCategories {
		return fmt.Sprintf("category(%d)", c)
	}
	return categoryNames[c]
}

func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if strings.EqualFold(n, name) {
			return Category(i), nil //nolint:gosec
		}
	}
	return 0, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, name)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(data []byte) error {
	tmp, err := ParseCategory(string(data))
	if err != nil {
		return err
	}
	*c = tmp
	return nil
}

// FeeCategory indexes the fee weight schedule. The first four share their
// numbering with the branch categories; the last is reserved for liquidity
type FeeCategory uint8

const (
	FeePresident FeeCategory = iota
	FeeSenate
	FeeCourt
	FeeTreasury
	FeeLiquidity
)

const NumFeeCategories = 5

var feeCategoryNames = [NumFeeCategories]string{
	"president",
	"senate",
	"court",
	"treasury",
	"liquidity",
}

// Branch returns the role that withdraws this fee category. The liquidity
// category has none
func (f FeeCategory) Branch() (Category, bool) {
	if f >= FeeLiquidity {
		return 0, false
	}
	return Category(f), true
}

func (f FeeCategory) String() string {
	if f >= NumFeeCategories {
		return fmt.Sprintf("fee_category(%d)", f)
	}
	return feeCategoryNames[f]
}

func ParseFeeCategory(name string) (FeeCategory, error) {
	for i, n := range feeCategoryNames {
		if strings.EqualFold(n, name) {
			return FeeCategory(i), nil //nolint:gosec
		}
	}
	return 0, fmt.Errorf("%w: unknown fee category %q", ErrInvalidArgument, name)
}

func (f FeeCategory) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FeeCategory) UnmarshalText(data []byte) error {
	tmp, err := ParseFeeCategory(string(data))
	if err != nil {
		return err
	}
	*f = tmp
	return nil
}
