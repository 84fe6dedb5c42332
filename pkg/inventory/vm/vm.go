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

// Package vm caches the virtual machine list reported by virsh.
//
// The cached value is re-polled only once it is older than the staleness
// threshold. A failed poll is logged and the previous value is served
// unchanged; callers never see poll errors.
package vm

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

const listCommand = "virsh list --all"

var (
	pollTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostpulse_vm_poll_total",
			Help: "Total number of VM list polls",
		},
		[]string{"status"}, // success or error
	)

	fieldSeparator = regexp.MustCompile(`\s{2,}`)
)

// VirtualMachine is one entry of the VM list.
type VirtualMachine struct {
	Name    string `json:"name" yaml:"name"`
	State   string `json:"state" yaml:"state"`
	Running bool   `json:"running" yaml:"running"`
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithClock sets the clock used for staleness checks.
func WithClock(c clock.Clock) Option {
	return func(inv *Inventory) {
		inv.clock = c
	}
}

// WithStaleAfter sets the staleness threshold.
func WithStaleAfter(d time.Duration) Option {
	return func(inv *Inventory) {
		inv.staleAfter = d
	}
}

// Inventory is a poll-with-staleness cache of the VM list.
type Inventory struct {
	exec       executor.Executor
	clock      clock.Clock
	staleAfter time.Duration
	group      singleflight.Group

	mu       sync.RWMutex
	cached   []VirtualMachine
	cachedAt time.Time
	polled   bool
}

// New returns an empty Inventory polling through exec.
func New(exec executor.Executor, opts ...Option) *Inventory {
	inv := &Inventory{
		exec:       exec,
		clock:      clock.RealClock{},
		staleAfter: defaults.VMStaleAfter,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Get returns the VM list, polling first when the cache is stale.
// Concurrent stale readers share one poll.
func (inv *Inventory) Get(ctx context.Context) []VirtualMachine {
	if list, fresh := inv.fresh(); fresh {
		return list
	}

	v, _, _ := inv.group.Do("poll", func() (any, error) {
		if list, fresh := inv.fresh(); fresh {
			return list, nil
		}
		return inv.poll(ctx), nil
	})
	return clone(v.([]VirtualMachine))
}

func (inv *Inventory) fresh() ([]VirtualMachine, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	if !inv.polled || inv.clock.Since(inv.cachedAt) >= inv.staleAfter {
		return nil, false
	}
	return clone(inv.cached), true
}

// poll refreshes the cache and returns the value to serve.
func (inv *Inventory) poll(ctx context.Context) []VirtualMachine {
	list, err := inv.Poll(ctx)
	if err != nil {
		pollTotal.WithLabelValues("error").Inc()
		inv.mu.RLock()
		stale := clone(inv.cached)
		inv.mu.RUnlock()
		slog.Warn("vm poll failed, serving cached list",
			slog.Int("cached", len(stale)),
			slog.String("error", err.Error()))
		return stale
	}

	pollTotal.WithLabelValues("success").Inc()
	inv.mu.Lock()
	inv.cached = list
	inv.cachedAt = inv.clock.Now()
	inv.polled = true
	inv.mu.Unlock()
	return clone(list)
}

// Poll runs the listing command and parses it without touching the cache.
func (inv *Inventory) Poll(ctx context.Context) ([]VirtualMachine, error) {
	out, err := inv.exec.Execute(ctx, listCommand)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExecution, "failed to list virtual machines", err)
	}
	return Parse(out), nil
}

// Parse reads `virsh list --all` output. Header and separator lines are
// skipped; remaining lines are split on runs of two or more spaces and
// need at least Id, Name and State. Malformed lines are dropped.
func Parse(out string) []VirtualMachine {
	list := []VirtualMachine{}
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "---") || isHeader(line) {
			continue
		}
		fields := fieldSeparator.Split(line, -1)
		if len(fields) < 3 {
			continue
		}
		state := strings.TrimSpace(strings.Join(fields[2:], " "))
		list = append(list, VirtualMachine{
			Name:    strings.TrimSpace(fields[1]),
			State:   state,
			Running: strings.HasPrefix(strings.ToLower(state), "running"),
		})
	}
	return list
}

func isHeader(line string) bool {
	fields := strings.Fields(line)
	return len(fields) >= 2 && strings.EqualFold(fields[0], "id") && strings.EqualFold(fields[1], "name")
}

func clone(list []VirtualMachine) []VirtualMachine {
	out := make([]VirtualMachine, len(list))
	copy(out, list)
	return out
}
