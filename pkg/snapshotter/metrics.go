// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package snapshotter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Snapshot assembly metrics
	snapshotAssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostpulse_snapshot_assembly_duration_seconds",
			Help:    "Time taken to assemble a complete snapshot",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	snapshotAssemblyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostpulse_snapshot_assembly_total",
			Help: "Total number of snapshot assembly cycles",
		},
	)

	snapshotCollectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hostpulse_snapshot_collector_duration_seconds",
			Help:    "Time taken by individual collectors",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 5, 10},
		},
		[]string{"collector"}, // host, network, array, containers, vms
	)

	snapshotCollectorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostpulse_snapshot_collector_failures_total",
			Help: "Total number of collector failures that degraded a snapshot field",
		},
		[]string{"collector", "reason"}, // error or timeout
	)

	snapshotContainerCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostpulse_snapshot_containers",
			Help: "Number of containers in the last assembled snapshot",
		},
	)

	// Delivery metrics
	snapshotCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostpulse_snapshot_cache_requests_total",
			Help: "Total number of pull requests by cache result",
		},
		[]string{"result"}, // hit, miss, forced
	)

	broadcastSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostpulse_broadcast_subscribers",
			Help: "Number of active push subscribers",
		},
	)

	broadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostpulse_broadcast_dropped_total",
			Help: "Total number of undelivered snapshots replaced by a newer one",
		},
	)
)
