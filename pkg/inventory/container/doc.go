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

// Package container keeps an in-memory inventory of containers fresh through
// the runtime's event feed.
//
// # Lifecycle
//
// The Inventory starts uninitialized. The first Get performs a full refresh:
// one bulk list of all containers (stopped included), one batch inspect of
// every id, and an atomic swap of the resulting list and id index. From then
// on, Listen consumes runtime events:
//
//   - destroy, remove: the container is dropped
//   - create, start, restart, rename, unpause, pause, die, stop: only that
//     container is listed and inspected again, then upserted
//   - anything else, including non-container events: ignored
//
// Events that arrive before the first full refresh are ignored; the refresh
// observes their effect. When the event stream ends, Listen restarts it after
// a fixed backoff until its context is cancelled.
//
// # Construction
//
// Builder turns a Summary (the listing row) and Details (inspect data) into a
// Container. The running flag comes only from the status text ("Up ...").
// Ports of the form [hostIp:]hostPort->containerPort[/protocol] become
// structured mappings; anything else is kept for display. The web UI and
// icon labels are templates supporting exactly two substitutions:
//
//	[IP]      the container IP, else the fallback host, else localhost
//	[PORT:n]  the published host port mapped to n, else n
//
// # Runtimes
//
// CLIRuntime drives the docker CLI through an executor.Executor and works for
// local and SSH targets. APIRuntime talks to the Docker Engine API directly.
package container
