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
	"slices"
)

// Guard is a re-entrancy guard. It does not block: acquiring a held guard
// fails with ErrStateConflict. Callers serialize access themselves
type Guard struct {
	name string
	held bool
}

func NewGuard(name string) *Guard {
	return &Guard{name: name}
}

// Acquire takes the guard and returns the function that releases it
func (g *Guard) Acquire() (func(), error) {
	if g.held {
		return nil, fmt.Errorf("%w: %s lock already held", ErrStateConflict, g.name)
	}
	g.held = true
	return func() { g.held = false }, nil
}

func (g *Guard) Held() bool {
	return g.held
}

// KeyedGuard is a set of re-entrancy guards indexed by key
type KeyedGuard[K comparable] struct {
	held map[K]struct{}
	name string
}

func NewKeyedGuard[K comparable](name string) *KeyedGuard[K] {
	return &KeyedGuard[K]{
		name: name,
		held: make(map[K]struct{}),
	}
}

// Acquire takes the guards for every distinct key, or none of them
func (g *KeyedGuard[K]) Acquire(keys ...K) (func(), error) {
	acquired := make([]K, 0, len(keys))
	for _, key := range keys {
		if slices.Contains(acquired, key) {
			continue
		}
		if _, ok := g.held[key]; ok {
			for _, k := range acquired {
				delete(g.held, k)
			}
			return nil, fmt.Errorf(
				"%w: %s lock already held for %v",
				ErrStateConflict,
				g.name,
				key,
			)
		}
		g.held[key] = struct{}{}
		acquired = append(acquired, key)
	}
	return func() {
		for _, k := range acquired {
			delete(g.held, k)
		}
	}, nil
}

func (g *KeyedGuard[K]) Held(key K) bool {
	_, ok := g.held[key]
	return ok
}
