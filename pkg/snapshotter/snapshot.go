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

package snapshotter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/collector/host"
	"github.com/NVIDIA/hostpulse/pkg/collector/network"
	"github.com/NVIDIA/hostpulse/pkg/collector/storage"
	"github.com/NVIDIA/hostpulse/pkg/defaults"
	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/inventory/container"
	"github.com/NVIDIA/hostpulse/pkg/inventory/vm"
)

// Assembler composes snapshots from its collectors. Nil collectors leave
// their field degraded.
type Assembler struct {
	Host       HostCollector
	Network    NetworkCollector
	Array      ArrayCollector
	Containers ContainerSource
	VMs        VMSource

	// Timeout bounds each collector. Zero means defaults.CollectorTimeout.
	Timeout time.Duration

	// Clock stamps snapshots. Nil means the real clock.
	Clock clock.PassiveClock

	mu   sync.Mutex
	last time.Time
}

func (a *Assembler) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return defaults.CollectorTimeout
}

func (a *Assembler) passiveClock() clock.PassiveClock {
	if a.Clock != nil {
		return a.Clock
	}
	return clock.RealClock{}
}

// Assemble runs one cycle. The cycle is not cancelled with ctx; each
// collector is bounded by the assembler's timeout instead.
func (a *Assembler) Assemble(ctx context.Context) *Snapshot {
	start := time.Now()
	defer func() {
		snapshotAssemblyDuration.Observe(time.Since(start).Seconds())
	}()

	ctx = context.WithoutCancel(ctx)
	timeout := a.timeout()
	snap := NewSnapshot()

	var g errgroup.Group

	if a.Host != nil {
		g.Go(func() error {
			h, err := collect(ctx, "host", timeout, a.Host.Collect)
			if err == nil && h != nil {
				snap.Host = *h
			}
			return nil
		})
	}

	if a.Network != nil {
		g.Go(func() error {
			n, err := collect(ctx, "network", timeout, a.Network.Collect)
			if err == nil {
				snap.Network = n
			}
			return nil
		})
	}

	if a.Array != nil {
		g.Go(func() error {
			u, err := collect(ctx, "array", timeout, a.Array.Collect)
			if err == nil {
				snap.ArrayUsage = u
			}
			return nil
		})
	}

	if a.Containers != nil {
		g.Go(func() error {
			list, err := collect(ctx, "containers", timeout, a.Containers.Get)
			if err == nil && list != nil {
				snap.Containers = list
			}
			return nil
		})
	}

	if a.VMs != nil {
		g.Go(func() error {
			list, err := collect(ctx, "vms", timeout, func(ctx context.Context) ([]vm.VirtualMachine, error) {
				return a.VMs.Get(ctx), nil
			})
			if err == nil && list != nil {
				snap.VMs = list
			}
			return nil
		})
	}

	_ = g.Wait()

	snap.CapturedAt = a.stamp()
	snapshotAssemblyTotal.Inc()
	snapshotContainerCount.Set(float64(len(snap.Containers)))
	slog.Debug("snapshot assembled",
		slog.Duration("took", time.Since(start)),
		slog.Int("containers", len(snap.Containers)),
		slog.Int("vms", len(snap.VMs)))
	return snap
}

// stamp returns the capture time, never earlier than the previous one.
func (a *Assembler) stamp() time.Time {
	now := a.passiveClock().Now().UTC()
	a.mu.Lock()
	defer a.mu.Unlock()
	if now.Before(a.last) {
		now = a.last
	}
	a.last = now
	return now
}

// collect runs fn bounded by timeout. A collector that ignores its context
// is abandoned when the timeout fires; its late result is discarded.
func collect[T any](ctx context.Context, name string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	defer func() {
		snapshotCollectorDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(cctx)
		ch <- result{v: v, err: err}
	}()

	var zero T
	select {
	case r := <-ch:
		if r.err != nil {
			snapshotCollectorFailures.WithLabelValues(name, "error").Inc()
			slog.Warn("collector failed, field degraded",
				slog.String("collector", name),
				slog.String("error", r.err.Error()))
			return zero, r.err
		}
		return r.v, nil
	case <-cctx.Done():
		snapshotCollectorFailures.WithLabelValues(name, "timeout").Inc()
		slog.Warn("collector timed out, field degraded",
			slog.String("collector", name),
			slog.Duration("timeout", timeout))
		return zero, errors.Wrap(errors.ErrCodeTimeout, name+" collector timed out", cctx.Err())
	}
}

// GetSnapshot implements Source without caching.
func (a *Assembler) GetSnapshot(ctx context.Context, _ bool) (*Snapshot, error) {
	return a.Assemble(ctx), nil
}

var (
	_ HostCollector    = (*host.Collector)(nil)
	_ NetworkCollector = (*network.Collector)(nil)
	_ ArrayCollector   = (*storage.Collector)(nil)
	_ ContainerSource  = (*container.Inventory)(nil)
	_ VMSource         = (*vm.Inventory)(nil)
	_ Source           = (*Assembler)(nil)
)
