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

// Package snapshotter assembles point-in-time snapshots of host and workload
// metrics and delivers them to pull and push consumers.
//
// # Assembly
//
// Assembler runs the host, network, array, container and VM collectors
// concurrently, each bounded by its own timeout. A collector that fails or
// times out degrades only its field:
//
//	host        zero value
//	network     null
//	arrayUsage  null
//	containers  []
//	vms         []
//
// Assembly itself never fails, and capturedAt never moves backwards across
// the cycles of one Assembler.
//
// # Delivery
//
// Both transports share one Source:
//
//	src := snapshotter.NewCachedSource(assembler, 10*time.Second)
//	snap, err := src.GetSnapshot(ctx, false) // cached when fresh enough
//
//	b := snapshotter.NewBroadcaster(src, time.Second)
//	go b.Run(ctx)
//	ch, cancel := b.Subscribe()
//	defer cancel()
//	for snap := range ch { ... }
//
// CachedSource enforces a minimum refresh interval and coalesces concurrent
// refreshes. Broadcaster forces a fresh snapshot on every tick and hands
// each subscriber its own copy through a one-slot channel; a slow subscriber
// loses stale values instead of delaying others.
package snapshotter
