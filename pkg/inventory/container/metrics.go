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

package container

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inventoryRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostpulse_container_refresh_total",
			Help: "Total number of container inventory refreshes",
		},
		[]string{"kind", "status"}, // full or one; success or error
	)

	inventorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostpulse_container_inventory_size",
			Help: "Number of containers in the inventory",
		},
	)

	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostpulse_container_events_total",
			Help: "Total number of runtime events by resulting action",
		},
		[]string{"action"}, // refresh, remove, ignored
	)

	listenerRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostpulse_container_event_listener_restarts_total",
			Help: "Total number of times the runtime event stream was restarted",
		},
	)
)
