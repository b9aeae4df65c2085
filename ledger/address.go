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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	AddressLength = 20
	AddressHrp    = "pol"
)

// Address identifies a holder. The zero value is the null address
type Address [AddressLength]byte

// NullAddress is never a valid holder or role holder
var NullAddress Address

// NewAddress builds an address from raw bytes. An empty slice yields the
// null address
func NewAddress(data []byte) (Address, error) {
	var ret Address
	if len(data) == 0 {
		return ret, nil
	}
	if len(data) != AddressLength {
		return ret, fmt.Errorf(
			"%w: address must be %d bytes, got %d",
			ErrInvalidArgument,
			AddressLength,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// ParseAddress accepts bech32 ("pol1...") or 0x-prefixed hex. An empty
// string yields the null address
func ParseAddress(addr string) (Address, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return NullAddress, nil
	}
	if strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X") {
		data, err := hex.DecodeString(addr[2:])
		if err != nil {
			return NullAddress, fmt.Errorf(
				"%w: decode hex address: %w",
				ErrInvalidArgument,
				err,
			)
		}
		return NewAddress(data)
	}
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return NullAddress, fmt.Errorf(
			"%w: decode bech32 address: %w",
			ErrInvalidArgument,
			err,
		)
	}
	if hrp != AddressHrp {
		return NullAddress, fmt.Errorf(
			"%w: unexpected address prefix %q",
			ErrInvalidArgument,
			hrp,
		)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return NullAddress, fmt.Errorf(
			"%w: convert address bits: %w",
			ErrInvalidArgument,
			err,
		)
	}
	return NewAddress(decoded)
}

func (a Address) IsNull() bool {
	return a == NullAddress
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// String returns the bech32 form
func (a Address) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return a.Hex()
	}
	ret, err := bech32.Encode(AddressHrp, conv)
	if err != nil {
		return a.Hex()
	}
	return ret
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	tmp, err := ParseAddress(string(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// addressFromModel decodes a stored address. Stored values are always
// written by this package, so a malformed value indicates corruption
func addressFromModel(data []byte) (Address, error) {
	ret, err := NewAddress(data)
	if err != nil {
		return ret, fmt.Errorf("corrupt stored address: %w", err)
	}
	return ret, nil
}
