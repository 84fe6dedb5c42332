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

package container

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/collector/units"
	"github.com/NVIDIA/hostpulse/pkg/counter"
	"github.com/NVIDIA/hostpulse/pkg/defaults"
	"github.com/NVIDIA/hostpulse/pkg/errors"
)

// Option configures an Inventory.
type Option func(*Inventory)

// WithBuilder sets the Builder used to construct containers.
func WithBuilder(b *Builder) Option {
	return func(inv *Inventory) {
		inv.builder = b
	}
}

// WithClock sets the clock used to timestamp stats samples.
func WithClock(c clock.Clock) Option {
	return func(inv *Inventory) {
		inv.clock = c
	}
}

// WithStats enables per-container runtime statistics on Get.
func WithStats(enabled bool) Option {
	return func(inv *Inventory) {
		inv.stats = enabled
	}
}

// WithRestartBackoff sets the delay before the event stream is restarted.
func WithRestartBackoff(d time.Duration) Option {
	return func(inv *Inventory) {
		inv.restartBackoff = d
	}
}

// Inventory caches the container list of one runtime.
//
// Mutations (full refresh, refresh-one, remove) are serialized by writeMu,
// which is held across runtime calls. Readers only take mu, which guards the
// cached list and index and is never held during I/O.
type Inventory struct {
	runtime        Runtime
	builder        *Builder
	clock          clock.Clock
	stats          bool
	restartBackoff time.Duration
	rates          *counter.Tracker

	writeMu sync.Mutex

	mu          sync.RWMutex
	initialized bool
	list        []Container
	byID        map[string]int
}

// New returns an uninitialized Inventory over rt.
func New(rt Runtime, opts ...Option) *Inventory {
	inv := &Inventory{
		runtime:        rt,
		builder:        NewBuilder(),
		clock:          clock.RealClock{},
		restartBackoff: defaults.EventRestartBackoff,
		rates:          counter.NewTracker(counter.BytesToMbps),
		byID:           map[string]int{},
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Initialized reports whether the first full refresh has completed.
func (inv *Inventory) Initialized() bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.initialized
}

// Len returns the number of cached containers.
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.list)
}

// Get returns a copy of the container list, initializing the inventory on
// first use. With stats enabled, running containers carry Metrics.
func (inv *Inventory) Get(ctx context.Context) ([]Container, error) {
	if !inv.Initialized() {
		if err := inv.initialize(ctx); err != nil {
			return []Container{}, err
		}
	}

	list := inv.snapshot()
	if inv.stats {
		inv.attachStats(ctx, list)
	}
	return list, nil
}

func (inv *Inventory) initialize(ctx context.Context) error {
	inv.writeMu.Lock()
	defer inv.writeMu.Unlock()
	if inv.Initialized() {
		return nil
	}
	return inv.refreshLocked(ctx)
}

func (inv *Inventory) snapshot() []Container {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]Container, len(inv.list))
	for i, c := range inv.list {
		out[i] = c.Clone()
	}
	return out
}

// Refresh rebuilds the whole cache from one bulk list and one batch inspect
// and swaps it in.
func (inv *Inventory) Refresh(ctx context.Context) error {
	inv.writeMu.Lock()
	defer inv.writeMu.Unlock()
	return inv.refreshLocked(ctx)
}

func (inv *Inventory) refreshLocked(ctx context.Context) error {
	list, err := inv.buildAll(ctx)
	if err != nil {
		inventoryRefreshTotal.WithLabelValues("full", "error").Inc()
		return err
	}

	byID := make(map[string]int, len(list))
	for i, c := range list {
		byID[c.ID] = i
	}

	inv.mu.Lock()
	inv.list = list
	inv.byID = byID
	inv.initialized = true
	inv.mu.Unlock()

	inventorySize.Set(float64(len(list)))
	inventoryRefreshTotal.WithLabelValues("full", "success").Inc()
	slog.Debug("container inventory refreshed", slog.Int("count", len(list)))
	return nil
}

func (inv *Inventory) buildAll(ctx context.Context) ([]Container, error) {
	summaries, err := inv.runtime.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExecution, "failed to list containers", err)
	}

	seen := make(map[string]bool, len(summaries))
	ids := make([]string, 0, len(summaries))
	unique := summaries[:0:0]
	for _, s := range summaries {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		ids = append(ids, s.ID)
		unique = append(unique, s)
	}

	details := map[string]Details{}
	if len(ids) > 0 {
		ds, err := inv.runtime.Inspect(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeExecution, "failed to inspect containers", err)
		}
		for _, d := range ds {
			details[d.ID] = d
		}
	}

	list := make([]Container, 0, len(unique))
	for _, s := range unique {
		list = append(list, inv.builder.Build(s, details[s.ID]))
	}
	return list, nil
}

// RefreshOne re-resolves a single container and upserts it. A container
// that is no longer listed is removed.
func (inv *Inventory) RefreshOne(ctx context.Context, id string) error {
	inv.writeMu.Lock()
	defer inv.writeMu.Unlock()
	return inv.refreshOneLocked(ctx, id)
}

func (inv *Inventory) refreshOneLocked(ctx context.Context, id string) error {
	summaries, err := inv.runtime.List(ctx, id)
	if err != nil {
		inventoryRefreshTotal.WithLabelValues("one", "error").Inc()
		return errors.WrapWithContext(errors.ErrCodeExecution, "failed to list container", err,
			map[string]any{"id": id})
	}

	idx := slices.IndexFunc(summaries, func(s Summary) bool { return s.ID == id })
	if idx < 0 {
		inv.removeLocked(id)
		inventoryRefreshTotal.WithLabelValues("one", "success").Inc()
		return nil
	}

	ds, err := inv.runtime.Inspect(ctx, []string{id})
	if err != nil {
		inventoryRefreshTotal.WithLabelValues("one", "error").Inc()
		return errors.WrapWithContext(errors.ErrCodeExecution, "failed to inspect container", err,
			map[string]any{"id": id})
	}
	var d Details
	for _, candidate := range ds {
		if candidate.ID == id {
			d = candidate
			break
		}
	}

	c := inv.builder.Build(summaries[idx], d)

	inv.mu.Lock()
	if i, ok := inv.byID[id]; ok {
		inv.list[i] = c
	} else {
		inv.byID[id] = len(inv.list)
		inv.list = append(inv.list, c)
	}
	size := len(inv.list)
	inv.mu.Unlock()

	inventorySize.Set(float64(size))
	inventoryRefreshTotal.WithLabelValues("one", "success").Inc()
	return nil
}

// Remove drops a container and its rate series.
func (inv *Inventory) Remove(id string) {
	inv.writeMu.Lock()
	defer inv.writeMu.Unlock()
	inv.removeLocked(id)
}

func (inv *Inventory) removeLocked(id string) {
	inv.mu.Lock()
	i, ok := inv.byID[id]
	if ok {
		inv.list = slices.Delete(inv.list, i, i+1)
		delete(inv.byID, id)
		for j := i; j < len(inv.list); j++ {
			inv.byID[inv.list[j].ID] = j
		}
	}
	size := len(inv.list)
	inv.mu.Unlock()

	inv.rates.ForgetPrefix(id + "/")
	if ok {
		inventorySize.Set(float64(size))
	}
}

func (inv *Inventory) attachStats(ctx context.Context, list []Container) {
	var ids []string
	for _, c := range list {
		if c.Running {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	stats, err := inv.runtime.Stats(ctx, ids)
	if err != nil {
		slog.Warn("failed to read container stats", slog.String("error", err.Error()))
		return
	}

	now := inv.clock.Now()
	for i := range list {
		s, ok := stats[list[i].ID]
		if !ok {
			continue
		}
		id := list[i].ID
		list[i].Metrics = &Metrics{
			CPUPercent:    units.Round2(s.CPUPercent),
			MemPercent:    units.Round2(units.Clamp(s.MemPercent)),
			MemUsedBytes:  s.MemUsedBytes,
			MemLimitBytes: s.MemLimitBytes,
			NetRxBytes:    s.NetRxBytes,
			NetTxBytes:    s.NetTxBytes,
			NetRxMbps:     rate(inv.rates.Sample(id+"/rx", s.NetRxBytes, now)),
			NetTxMbps:     rate(inv.rates.Sample(id+"/tx", s.NetTxBytes, now)),
		}
	}
}

func rate(r counter.Result) *float64 {
	v, ok := r.Value()
	if !ok {
		return nil
	}
	v = units.Round2(v)
	return &v
}
