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

// Package counter turns cumulative OS counters into rates.
//
// Rate is the pure two-sample computation. Tracker keeps the last sample for
// each named series and is safe for concurrent use:
//
//	t := counter.NewTracker(counter.BytesToMbps)
//	t.Sample("eth0/rx", rxBytes, now) // first call: unknown
//	r := t.Sample("eth0/rx", rxBytes2, now.Add(time.Second))
//	if mbps, ok := r.Value(); ok { ... }
//
// A sample whose timestamp does not advance yields an unknown rate and leaves
// the stored sample untouched, so a duplicate tick cannot corrupt the series.
package counter
