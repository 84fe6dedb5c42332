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

package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Executor runs a shell command on a target and returns its standard output.
type Executor interface {
	// Execute runs command to completion and returns its captured stdout.
	Execute(ctx context.Context, command string) (string, error)

	// Stream runs command and calls onLine for every stdout line until the
	// command exits or ctx is cancelled. A clean exit returns nil.
	Stream(ctx context.Context, command string, onLine func(string)) error
}

// ExitCodeUnknown is reported when a command did not produce an exit status,
// for example because it could not be started or was killed on timeout.
const ExitCodeUnknown = -1

// ExecutionError reports a failed command.
type ExecutionError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command %q failed", e.Command)
	if e.ExitCode != ExitCodeUnknown {
		fmt.Fprintf(&b, " with exit code %d", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ": %s", stderr)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimedOut reports whether the command was stopped by its deadline.
func (e *ExecutionError) TimedOut() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Quote wraps s in single quotes for safe use as one shell word.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
