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

// Package cli implements the hostpulse command-line interface.
//
// # Commands
//
// snapshot - Capture one snapshot:
//
//	hostpulse snapshot [--format json|yaml|table] [--output file]
//
// Runs a single assembly cycle against the target and writes it. Network
// rates need two samples, so they are null in a one-shot snapshot.
//
// watch - Stream snapshots to the terminal:
//
//	hostpulse watch [--interval 2s] [--format table]
//
// Prints a fresh snapshot every interval until interrupted.
//
// serve - Run the HTTP transport:
//
//	hostpulse serve [--address 0.0.0.0] [--port 8080]
//
// Serves /v1/snapshot, /v1/stream, /metrics, /health and /ready.
//
// version - Print build information.
//
// # Global Flags
//
//	--config        YAML configuration file ($HOSTPULSE_CONFIG)
//	--log-level     debug, info, warn or error ($LOG_LEVEL)
//	--ssh-host      sample a remote host over SSH instead of this machine
//	--interface     network interface (default: the default route)
//
// Flags override the configuration file and HOSTPULSE_* environment
// variables.
//
// # Output Formats
//
// JSON (default) is the wire format. YAML uses the same field names. Table
// renders a container and VM summary for snapshots and FIELD/VALUE rows
// for anything else.
//
// The CLI uses the urfave/cli/v3 framework and delegates to pkg/config,
// pkg/snapshotter and pkg/api.
package cli
