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
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
)

// Local runs commands on this machine through a POSIX shell.
type Local struct {
	// Shell is the interpreter invoked with -c. Defaults to /bin/sh.
	Shell string

	// Timeout bounds Execute. Zero uses defaults.CommandTimeout.
	Timeout time.Duration
}

// NewLocal returns a Local executor with default settings.
func NewLocal() *Local {
	return &Local{
		Shell:   "/bin/sh",
		Timeout: defaults.CommandTimeout,
	}
}

func (l *Local) shell() string {
	if l.Shell == "" {
		return "/bin/sh"
	}
	return l.Shell
}

// Execute implements Executor.
func (l *Local) Execute(ctx context.Context, command string) (string, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = defaults.CommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, l.shell(), "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", localError(ctx, command, err, stderr.String())
	}
	return stdout.String(), nil
}

// Stream implements Executor.
func (l *Local) Stream(ctx context.Context, command string, onLine func(string)) error {
	runCtx, kill := context.WithCancel(ctx)
	defer kill()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, l.shell(), "-c", command)
	cmd.Stderr = &stderr
	cmd.WaitDelay = defaults.CommandWaitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Err: err}
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		onLine(scanner.Text())
	}

	// Nobody drains stdout past a scan failure; stop the process so Wait
	// does not block on a full pipe.
	scanErr := scanner.Err()
	if scanErr != nil {
		kill()
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if scanErr != nil {
			return &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Stderr: stderr.String(), Err: scanErr}
		}
		return localError(ctx, command, err, stderr.String())
	}
	if scanErr != nil {
		return &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Stderr: stderr.String(), Err: scanErr}
	}
	return nil
}

func localError(ctx context.Context, command string, err error, stderr string) error {
	ee := &ExecutionError{
		Command:  command,
		ExitCode: ExitCodeUnknown,
		Stderr:   stderr,
		Err:      err,
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		ee.Err = ctxErr
		return ee
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		ee.ExitCode = exitErr.ExitCode()
	}
	return ee
}
