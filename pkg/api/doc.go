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

// Package api runs the hostpulsed daemon.
//
// Serve is the daemon entrypoint. It configures structured logging, loads
// configuration from the file named by HOSTPULSE_CONFIG plus HOSTPULSE_*
// environment overrides, and serves until SIGINT or SIGTERM.
//
//	func main() {
//	    if err := api.Serve(); err != nil {
//	        os.Exit(1)
//	    }
//	}
//
// Run does the wiring and is shared with the CLI serve command:
//   - collectors and inventories from pkg/collector, sampling the local
//     host or an SSH target
//   - the container event listener, started in the background
//   - a CachedSource for GET /v1/snapshot
//   - a Broadcaster for the /v1/stream websocket
//   - pkg/server for routing, middleware, systemd notification and
//     graceful shutdown
package api
