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
	"math/bits"

	"github.com/holiman/uint256"
)

// mulDiv returns floor(a * b / denom) using a 256-bit intermediate
func mulDiv(a, b, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	ret := new(uint256.Int).SetUint64(a)
	ret.Mul(ret, uint256.NewInt(b))
	ret.Div(ret, uint256.NewInt(denom))
	if !ret.IsUint64() {
		return 0, fmt.Errorf("%w: result overflows uint64", ErrArithmetic)
	}
	return ret.Uint64(), nil
}

func addChecked(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d overflows", ErrArithmetic, a, b)
	}
	return sum, nil
}

func subChecked(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%w: %d - %d underflows", ErrArithmetic, a, b)
	}
	return diff, nil
}
