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


package node

import (
	"context"
	"log/slog"

	"github.com/blinklabs-io/polity/event"
	"github.com/blinklabs-io/polity/ledger"
	"github.com/blinklabs-io/polity/settlement"
	"github.com/blinklabs-io/polity/token"
)

// Token transfers are frequent and only logged at debug level
var loggedEventTypes = map[event.EventType]slog.Level{
	ledger.GenesisAppliedEventType:    slog.LevelInfo,
	ledger.ChoiceChangedEventType:     slog.LevelInfo,
	ledger.RestrictedEventType:        slog.LevelInfo,
	ledger.RoleClaimedEventType:       slog.LevelInfo,
	ledger.AbdicatedEventType:         slog.LevelInfo,
	ledger.AutomationChangedEventType: slog.LevelInfo,
	ledger.WeightChangedEventType:     slog.LevelInfo,
	ledger.RecipientChangedEventType:  slog.LevelInfo,
	ledger.ExemptionChangedEventType:  slog.LevelInfo,
	ledger.ValueReceivedEventType:     slog.LevelInfo,
	ledger.WithdrawalEventType:        slog.LevelInfo,
	ledger.DistributionResetEventType: slog.LevelInfo,
	settlement.CompletedEventType:     slog.LevelInfo,
	token.TransferEventType:           slog.LevelDebug,
}

// logEvents subscribes an event logger to every committed change. The
// subscriptions end when the bus is stopped
func logEvents(bus *event.EventBus, logger *slog.Logger) {
	eventLogger := logger.With("component", "events")
	for evtType, level := range loggedEventTypes {
		bus.SubscribeFunc(evtType, func(evt event.Event) {
			eventLogger.Log(
				context.Background(),
				level,
				"event "+string(evt.Type),
				"type", string(evt.Type),
				"data", evt.Data,
			)
		})
	}
}
