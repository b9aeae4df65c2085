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

import "errors"

var (
	// ErrInvalidArgument covers null or malformed addresses, out of range
	// categories and inconsistent amounts
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is returned when an operation is attempted outside its
	// allowed lifecycle window
	ErrInvalidState = errors.New("invalid state")
	// ErrStateConflict is returned when a re-entrancy guard is already held
	ErrStateConflict = errors.New("state conflict")
	// ErrLimitExceeded is returned when the fee sum cap or the restriction
	// quota would be exceeded
	ErrLimitExceeded = errors.New("limit exceeded")
	// ErrInsufficientFunds is returned on balance or entitlement underflow
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrArithmetic is returned on division by zero or integer overflow
	ErrArithmetic = errors.New("arithmetic error")
	// ErrUnauthorized is returned when the caller does not hold the role an
	// operation requires
	ErrUnauthorized = errors.New("unauthorized")
)
