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

// Package executor runs shell commands against the monitored target.
//
// Every collector reads the host through an Executor, which makes the same
// collection code work on the local machine and on a remote host over SSH:
//
//	exec := executor.NewLocal()
//	out, err := exec.Execute(ctx, "cat /proc/uptime")
//
// Execute is bounded by a per-command timeout. Stream is used for long-lived
// line-oriented feeds such as `docker events` and runs until the command
// exits or the context is cancelled.
//
// Failures are reported as *ExecutionError carrying the exit code and
// captured stderr.
package executor
