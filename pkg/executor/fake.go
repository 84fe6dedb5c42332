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
	"sync"
)

// Fake is an in-memory Executor for tests. Responses are registered per exact
// command string; when several are queued for one command they are returned
// in order and the last one repeats.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	calls     []string

	// StreamFunc, when set, serves Stream calls.
	StreamFunc func(ctx context.Context, command string, onLine func(string)) error
}

type fakeResponse struct {
	output string
	err    error
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{responses: make(map[string][]fakeResponse)}
}

// On queues a successful response for command.
func (f *Fake) On(command, output string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[command] = append(f.responses[command], fakeResponse{output: output})
	return f
}

// Fail queues a failure for command.
func (f *Fake) Fail(command string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[command] = append(f.responses[command], fakeResponse{err: err})
	return f
}

// Execute implements Executor.
func (f *Fake) Execute(ctx context.Context, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, command)

	if err := ctx.Err(); err != nil {
		return "", &ExecutionError{Command: command, ExitCode: ExitCodeUnknown, Err: err}
	}

	queue := f.responses[command]
	if len(queue) == 0 {
		return "", &ExecutionError{Command: command, ExitCode: 127, Stderr: "command not found"}
	}
	r := queue[0]
	if len(queue) > 1 {
		f.responses[command] = queue[1:]
	}
	return r.output, r.err
}

// Stream implements Executor.
func (f *Fake) Stream(ctx context.Context, command string, onLine func(string)) error {
	f.mu.Lock()
	f.calls = append(f.calls, command)
	fn := f.StreamFunc
	f.mu.Unlock()

	if fn == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return fn(ctx, command, onLine)
}

// Calls returns the number of times command was run.
func (f *Fake) Calls(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == command {
			n++
		}
	}
	return n
}
