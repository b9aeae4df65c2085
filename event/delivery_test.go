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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSubscriberDeliverNonBlocking(t *testing.T) {
	const bufferSize = 5
	var dropped int
	sub := newChannelSubscriber(bufferSize, func() { dropped++ })
	for i := range bufferSize {
		require.NoError(t, sub.Deliver(NewEvent("test", i)))
	}
	done := make(chan error, 1)
	go func() {
		done <- sub.Deliver(NewEvent("test", "overflow"))
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked on full channel buffer")
	}
	assert.Equal(t, 1, dropped)
	for i := range bufferSize {
		evt := <-sub.ch
		assert.Equal(t, i, evt.Data)
	}
	select {
	case evt := <-sub.ch:
		t.Fatalf("unexpected extra event in channel: %v", evt)
	default:
	}
}

func TestChannelSubscriberDeliverAfterClose(t *testing.T) {
	sub := newChannelSubscriber(5, nil)
	sub.Close()
	sub.Close()
	require.NoError(t, sub.Deliver(NewEvent("test", "after-close")))
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := NewEventBus(reg, nil)
	defer eb.Stop()
	typ := EventType("metrics.test")
	_, ch := eb.Subscribe(typ)
	for range EventQueueSize + 3 {
		eb.Publish(typ, NewEvent(typ, nil))
	}
	assert.InDelta(
		t,
		float64(EventQueueSize+3),
		testutil.ToFloat64(eb.metrics.eventsTotal.WithLabelValues(string(typ))),
		0,
	)
	assert.InDelta(
		t,
		3,
		testutil.ToFloat64(eb.metrics.dropped.WithLabelValues(string(typ))),
		0,
	)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(eb.metrics.subscribers.WithLabelValues(string(typ))),
		0,
	)
	assert.Len(t, ch, EventQueueSize)
}
