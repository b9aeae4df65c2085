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

package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	raceTransfer EventType = "token.transfer"
	raceChoice   EventType = "governance.choice_changed"
)

// Committed operations publish their events in batches while API clients
// subscribe and unsubscribe. None of this may panic on a closed channel
func TestPublishAllWhileSubscribersChurn(t *testing.T) {
	for range 200 {
		eb := NewEventBus(nil, nil)
		batch := []Event{
			NewEvent(raceChoice, 1),
			NewEvent(raceTransfer, 2),
			NewEvent(raceChoice, 3),
		}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 10 {
				eb.PublishAll(batch)
			}
		}()
		go func() {
			defer wg.Done()
			for range 5 {
				subId, ch := eb.Subscribe(raceChoice)
				go func() {
					for range ch {
					}
				}()
				eb.Unsubscribe(raceChoice, subId)
			}
		}()
		wg.Wait()
		eb.Stop()
	}
}

// Stop must wait for every handler registered before it, and reject the
// ones registered after it
func TestStopWhileSubscribingFuncs(t *testing.T) {
	for range 200 {
		eb := NewEventBus(nil, nil)
		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				eb.SubscribeFunc(raceTransfer, func(Event) {})
				eb.PublishAsync(raceTransfer, NewEvent(raceTransfer, nil))
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			eb.Stop()
		}()
		wg.Wait()
		eb.Stop()
		assert.Equal(
			t,
			EventSubscriberId(0),
			eb.SubscribeFunc(raceTransfer, func(Event) {}),
		)
	}
}

func TestUnsubscribeWithFullBufferDoesNotDeadlock(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	subId, ch := eb.Subscribe(raceTransfer)
	for range EventQueueSize {
		eb.Publish(raceTransfer, NewEvent(raceTransfer, "fill"))
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				eb.Publish(raceTransfer, NewEvent(raceTransfer, "overflow"))
			}
		}()
		go func() {
			defer wg.Done()
			eb.Unsubscribe(raceTransfer, subId)
		}()
		wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish and unsubscribe blocked on a full subscriber buffer")
	}
	drained := 0
	for range ch {
		drained++
	}
	require.LessOrEqual(t, drained, EventQueueSize)
}
