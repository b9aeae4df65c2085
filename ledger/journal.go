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
	"github.com/blinklabs-io/polity/database"
	"github.com/blinklabs-io/polity/event"
)

// WriteFunc persists a piece of state inside a database transaction
type WriteFunc func(txn *database.Txn) error

// Journal collects the side effects of one operation: undo closures for the
// in-memory state, keyed writes for the database and events to publish once
// the operation has committed. A nil or inactive journal applies nothing
// and publishes events immediately
type Journal struct {
	bus       *event.EventBus
	undo      []func()
	writes    []WriteFunc
	writeKeys map[string]struct{}
	events    []event.Event
	active    bool
}

func NewJournal(bus *event.EventBus) *Journal {
	return &Journal{
		bus:       bus,
		writeKeys: make(map[string]struct{}),
	}
}

// Begin starts recording a new operation
func (j *Journal) Begin() {
	j.reset()
	j.active = true
}

func (j *Journal) Active() bool {
	return j != nil && j.active
}

// Record registers a closure that restores in-memory state on Revert
func (j *Journal) Record(undo func()) {
	if !j.Active() {
		return
	}
	j.undo = append(j.undo, undo)
}

// Persist registers a database write. Only the first write for a key is
// kept, so fn must read the state it persists when it runs
func (j *Journal) Persist(key string, fn WriteFunc) {
	if !j.Active() {
		return
	}
	if _, ok := j.writeKeys[key]; ok {
		return
	}
	j.writeKeys[key] = struct{}{}
	j.writes = append(j.writes, fn)
}

// Emit queues an event until Commit
func (j *Journal) Emit(eventType event.EventType, data any) {
	evt := event.NewEvent(eventType, data)
	if !j.Active() {
		if j != nil && j.bus != nil {
			j.bus.Publish(eventType, evt)
		}
		return
	}
	j.events = append(j.events, evt)
}

// Pending returns the number of queued writes
func (j *Journal) Pending() int {
	if j == nil {
		return 0
	}
	return len(j.writes)
}

// Flush runs the queued writes in txn
func (j *Journal) Flush(txn *database.Txn) error {
	if !j.Active() {
		return nil
	}
	for _, fn := range j.writes {
		if err := fn(txn); err != nil {
			return err
		}
	}
	return nil
}

// Revert undoes the in-memory effects of the operation in reverse order and
// drops its writes and events
func (j *Journal) Revert() {
	if !j.Active() {
		return
	}
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.reset()
}

// Commit ends the operation and returns the events it emitted. The caller
// publishes them with Publish once it no longer holds its own locks
func (j *Journal) Commit() []event.Event {
	if !j.Active() {
		return nil
	}
	ret := j.events
	j.reset()
	return ret
}

// Publish sends committed events to the bus
func (j *Journal) Publish(evts []event.Event) {
	if j == nil || j.bus == nil {
		return
	}
	j.bus.PublishAll(evts)
}

func (j *Journal) reset() {
	j.undo = nil
	j.writes = nil
	j.events = nil
	clear(j.writeKeys)
	j.active = false
}
