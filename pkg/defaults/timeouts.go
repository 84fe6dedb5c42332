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

package defaults

import "time"

// Collector timing.
const (
	// CPUSampleInterval separates the two /proc/stat reads used to compute
	// CPU busy percentage.
	CPUSampleInterval = 400 * time.Millisecond

	// CollectorTimeout bounds a single collector within one assembly cycle.
	// A collector exceeding it degrades its snapshot field.
	CollectorTimeout = 10 * time.Second

	// CommandTimeout bounds a single command run by an executor.
	CommandTimeout = 8 * time.Second

	// CommandWaitDelay bounds how long a killed local command may keep its
	// output pipes open through orphaned children.
	CommandWaitDelay = 2 * time.Second
)

// Inventory timing.
const (
	// VMStaleAfter is the age after which the cached VM list is re-polled.
	VMStaleAfter = 60 * time.Second

	// EventRestartBackoff is the delay before the container event listener
	// is restarted after its stream terminates.
	EventRestartBackoff = 5 * time.Second
)

// Transport timing.
const (
	// MinRefreshInterval is the floor for the pull-mode snapshot cache.
	MinRefreshInterval = 5 * time.Second

	// PushInterval is the default tick for push-mode broadcasting.
	PushInterval = 1 * time.Second

	// StreamWriteTimeout bounds a single websocket write to a subscriber.
	StreamWriteTimeout = 5 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// SnapshotHandlerTimeout bounds a pull request including a forced cycle.
	SnapshotHandlerTimeout = 20 * time.Second
)

// SSH connection timing.
const (
	// SSHDialTimeout is the timeout for establishing the SSH connection.
	SSHDialTimeout = 10 * time.Second

	// SSHKeepaliveInterval is the period between keepalive requests on an
	// idle or streaming connection.
	SSHKeepaliveInterval = 30 * time.Second

	// SSHKeepaliveTimeout is how long a keepalive reply may take before the
	// connection is considered dead.
	SSHKeepaliveTimeout = 15 * time.Second
)

// CLI timeouts for command-line operations.
const (
	// CLISnapshotTimeout is the default timeout for a one-shot snapshot.
	CLISnapshotTimeout = 1 * time.Minute
)
