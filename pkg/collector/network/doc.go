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

// Package network reports byte counters and throughput for one interface.
//
// Counters come from /sys/class/net/<iface>/statistics. Rates are computed
// by a counter.Tracker in megabits per second, keyed "<iface>/rx" and
// "<iface>/tx". The first sample and the first sample after an interface
// change carry a nil rate. When no interface is configured the default
// route's device is used.
package network
