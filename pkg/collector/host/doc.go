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

// Package host samples CPU, memory, uptime and hostname from procfs.
//
// All reads go through an executor.Executor, so the collector works for the
// local machine and for SSH targets alike. CPU usage needs two /proc/stat
// reads separated by a short sleep on the injected clock:
//
//	c := host.NewCollector(exec, host.WithClock(clk))
//	snap, _ := c.Collect(ctx)
//
// A failing sub-read is logged and leaves its field at zero. Collect only
// returns an error when ctx is already done.
package host
