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

// Package collector wires the hostpulse collectors and inventories to a
// target machine.
//
// The subpackages each sample one section of a snapshot:
//
//   - host: CPU busy percentage, memory, uptime and hostname from /proc
//   - network: interface byte counters and Mbps rates from /sys/class/net
//   - storage: array usage from df
//   - file: line and key/value parsing shared by the collectors
//   - units: rounding, clamping and unit conversion
//
// Every collector runs its reads through an executor.Executor, so the same
// code samples the local machine or a remote one over SSH.
//
// # Factory Pattern
//
// The Factory interface abstracts construction for dependency injection:
//
//	f, err := collector.NewDefaultFactory(cfg)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	hc := f.CreateHostCollector()
//
// Sections disabled in configuration produce nil components.
package collector
