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

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
)

// BroadcastOption configures a Broadcaster.
type BroadcastOption func(*Broadcaster)

// WithTickerClock sets the clock providing the broadcast ticker.
func WithTickerClock(c clock.WithTicker) BroadcastOption {
	return func(b *Broadcaster) {
		b.clock = c
	}
}

// Broadcaster pushes a fresh snapshot to every subscriber on each tick.
type Broadcaster struct {
	source   Source
	interval time.Duration
	clock    clock.WithTicker

	mu   sync.Mutex
	subs map[string]chan *Snapshot
}

// NewBroadcaster returns a Broadcaster over src ticking every interval.
// A non-positive interval means defaults.PushInterval.
func NewBroadcaster(src Source, interval time.Duration, opts ...BroadcastOption) *Broadcaster {
	if interval <= 0 {
		interval = defaults.PushInterval
	}
	b := &Broadcaster{
		source:   src,
		interval: interval,
		clock:    clock.RealClock{},
		subs:     map[string]chan *Snapshot{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber. The returned channel holds at most one
// pending snapshot and is closed by cancel or when Run returns.
func (b *Broadcaster) Subscribe() (<-chan *Snapshot, func()) {
	id := uuid.NewString()
	ch := make(chan *Snapshot, 1)

	b.mu.Lock()
	b.subs[id] = ch
	n := len(b.subs)
	b.mu.Unlock()

	broadcastSubscribers.Set(float64(n))
	slog.Debug("subscriber added", slog.String("id", id), slog.Int("subscribers", n))

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Broadcaster) unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	n := len(b.subs)
	b.mu.Unlock()

	if ok {
		broadcastSubscribers.Set(float64(n))
		slog.Debug("subscriber removed", slog.String("id", id), slog.Int("subscribers", n))
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Run ticks until ctx is cancelled, then closes all subscriber channels.
// Ticks with no subscribers skip assembly.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := b.clock.NewTicker(b.interval)
	defer ticker.Stop()
	defer b.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			b.Tick(ctx)
		}
	}
}

// Tick runs one broadcast cycle.
func (b *Broadcaster) Tick(ctx context.Context) {
	if b.Subscribers() == 0 {
		return
	}
	snap, err := b.source.GetSnapshot(ctx, true)
	if err != nil {
		slog.Warn("broadcast snapshot failed", slog.String("error", err.Error()))
		return
	}
	b.publish(snap)
}

func (b *Broadcaster) publish(snap *Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		own := snap.Clone()
		select {
		case ch <- own:
			continue
		default:
		}
		// Replace the undelivered value with the newer one.
		select {
		case <-ch:
			broadcastDropped.Inc()
		default:
		}
		select {
		case ch <- own:
		default:
		}
	}
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	broadcastSubscribers.Set(0)
}
