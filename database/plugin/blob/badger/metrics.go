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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const badgerMetricNamePrefix = "database_blob_"

type blobMetrics struct {
	readBytes  prometheus.Counter
	writeBytes prometheus.Counter
	gcRuns     prometheus.Counter
}

func (d *BlobStoreBadger) registerBlobMetrics() {
	promautoFactory := promauto.With(d.promRegistry)
	d.metrics = &blobMetrics{
		readBytes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "read_bytes_total",
			Help: "Total bytes read from the blob store",
		}),
		writeBytes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "write_bytes_total",
			Help: "Total bytes written to the blob store",
		}),
		gcRuns: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "gc_runs_total",
			Help: "Value log GC passes that reclaimed space",
		}),
	}
	promautoFactory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "size_bytes",
			Help: "On-disk size of the blob store (LSM and value log)",
		},
		func() float64 {
			if d.db == nil {
				return 0
			}
			lsm, vlog := d.db.Size()
			return float64(lsm + vlog)
		},
	)
}
