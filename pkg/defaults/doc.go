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

// Package defaults provides centralized timing constants for hostpulse.
//
// Collection cadence, cache staleness, transport intervals and server
// timeouts all live here so tuning happens in one place.
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.CollectorTimeout)
//	defer cancel()
//
// # Guidelines
//
//   - CPUSampleInterval must stay well below CollectorTimeout; it dominates
//     the latency of every assembly cycle.
//   - MinRefreshInterval is a floor: configured pull intervals below it are raised.
//   - VMStaleAfter bounds how often virsh is polled regardless of consumer load.
package defaults
