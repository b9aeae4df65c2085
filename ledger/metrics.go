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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	poolBalance       prometheus.Gauge
	totalAccrued      prometheus.Gauge
	feeSum            prometheus.Gauge
	quotaRemaining    prometheus.Gauge
	restrictedHolders prometheus.Gauge
	monarchyActive    prometheus.Gauge
	tallyEntries      prometheus.Gauge
	feeWeight         *prometheus.GaugeVec
	feeReceived       *prometheus.GaugeVec
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.poolBalance = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "polity_distribution_pool_balance",
		Help: "native value held by the distribution pool",
	})
	m.totalAccrued = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "polity_distribution_total_accrued",
		Help: "value accrued since the last distribution reset",
	})
	m.feeSum = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "polity_fees_weight_sum",
		Help: "sum of all fee weights in percent",
	})
	m.quotaRemaining = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "polity_governance_restriction_quota_remaining",
		Help: "restrictions left in the current window",
	})
	m.restrictedHolders = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "polity_governance_restricted_holders",
		Help: "number of restricted holders",
	})
	m.monarchyActive = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "polity_governance_monarchy_active",
		Help: "whether the ledger is in the monarchy phase (0 or 1)",
	})
	m.tallyEntries = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "polity_governance_tally_entries",
		Help: "number of tally entries",
	})
	m.feeWeight = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "polity_fees_weight",
			Help: "fee weight per category in percent",
		},
		[]string{"category"},
	)
	m.feeReceived = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "polity_distribution_received",
			Help: "value already paid out per category since the last reset",
		},
		[]string{"category"},
	)
}

// UpdateMetrics refreshes the state gauges. Callers hold the same lock they
// hold for reads
func (ls *LedgerState) UpdateMetrics() {
	ls.metrics.poolBalance.Set(float64(ls.gov.poolBalance))
	ls.metrics.totalAccrued.Set(float64(ls.gov.totalAccrued))
	ls.metrics.quotaRemaining.Set(float64(ls.gov.quota))
	ls.metrics.restrictedHolders.Set(float64(ls.RestrictedCount()))
	ls.metrics.tallyEntries.Set(float64(len(ls.tally)))
	if ls.Phase(ls.now()) == PhaseMonarchy {
		ls.metrics.monarchyActive.Set(1)
	} else {
		ls.metrics.monarchyActive.Set(0)
	}
	var sum uint64
	for i := range NumFeeCategories {
		cat := FeeCategory(i)
		sum += ls.weights[cat]
		ls.metrics.feeWeight.WithLabelValues(cat.String()).Set(float64(ls.weights[cat]))
		ls.metrics.feeReceived.WithLabelValues(cat.String()).Set(float64(ls.received[cat]))
	}
	ls.metrics.feeSum.Set(float64(sum))
}
