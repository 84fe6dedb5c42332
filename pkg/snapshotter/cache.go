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

	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
)

// SnapshotAssembler produces a fresh snapshot per call.
type SnapshotAssembler interface {
	Assemble(ctx context.Context) *Snapshot
}

// CacheOption configures a CachedSource.
type CacheOption func(*CachedSource)

// WithCacheClock sets the clock used for cache expiry.
func WithCacheClock(c clock.PassiveClock) CacheOption {
	return func(s *CachedSource) {
		s.clock = c
	}
}

// CachedSource serves pull requests from the last snapshot while it is
// younger than the minimum refresh interval.
type CachedSource struct {
	assembler   SnapshotAssembler
	minInterval time.Duration
	clock       clock.PassiveClock
	group       singleflight.Group

	mu     sync.RWMutex
	last   *Snapshot
	lastAt time.Time
}

// NewCachedSource returns a CachedSource over a. minInterval below
// defaults.MinRefreshInterval is raised to it.
func NewCachedSource(a SnapshotAssembler, minInterval time.Duration, opts ...CacheOption) *CachedSource {
	if minInterval < defaults.MinRefreshInterval {
		if minInterval > 0 {
			slog.Warn("refresh interval below minimum, using minimum",
				slog.Duration("requested", minInterval),
				slog.Duration("minimum", defaults.MinRefreshInterval))
		}
		minInterval = defaults.MinRefreshInterval
	}
	s := &CachedSource{
		assembler:   a,
		minInterval: minInterval,
		clock:       clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinInterval returns the effective minimum refresh interval.
func (s *CachedSource) MinInterval() time.Duration {
	return s.minInterval
}

// GetSnapshot implements Source. Concurrent refreshes share one assembly
// cycle and every caller receives its own copy.
func (s *CachedSource) GetSnapshot(ctx context.Context, force bool) (*Snapshot, error) {
	if !force {
		if snap := s.cached(); snap != nil {
			snapshotCacheTotal.WithLabelValues("hit").Inc()
			return snap, nil
		}
		snapshotCacheTotal.WithLabelValues("miss").Inc()
	} else {
		snapshotCacheTotal.WithLabelValues("forced").Inc()
	}

	ch := s.group.DoChan("assemble", func() (any, error) {
		snap := s.assembler.Assemble(ctx)
		s.mu.Lock()
		s.last = snap
		s.lastAt = s.clock.Now()
		s.mu.Unlock()
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val.(*Snapshot).Clone(), nil
	}
}

// Last returns a copy of the most recent snapshot regardless of age, or nil.
func (s *CachedSource) Last() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last.Clone()
}

func (s *CachedSource) cached() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil || s.clock.Since(s.lastAt) >= s.minInterval {
		return nil
	}
	return s.last.Clone()
}
