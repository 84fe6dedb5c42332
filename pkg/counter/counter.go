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

package counter

import (
	"sync"
	"time"
)

// Sample is one reading of a cumulative counter.
type Sample struct {
	Value     uint64
	Timestamp time.Time
}

// Result is the outcome of feeding a sample to a Tracker.
// A nil PerSecond means the rate is unknown.
type Result struct {
	PerSecond *float64
}

// Value returns the rate and whether it is known.
func (r Result) Value() (float64, bool) {
	if r.PerSecond == nil {
		return 0, false
	}
	return *r.PerSecond, true
}

// Known reports whether a rate was computed.
func (r Result) Known() bool {
	return r.PerSecond != nil
}

// Policy converts a value delta over an elapsed duration into a rate.
// elapsed is always positive when a Policy is called.
type Policy func(delta int64, elapsed time.Duration) float64

// PerSecond is the plain per-second rate of a monotonically increasing
// counter. Negative deltas (resets, wraps) are treated as zero.
func PerSecond(delta int64, elapsed time.Duration) float64 {
	if delta < 0 {
		delta = 0
	}
	return float64(delta) / elapsed.Seconds()
}

// BytesToMbps converts a byte counter delta into megabits per second.
// Negative deltas (resets, wraps) are treated as zero.
func BytesToMbps(delta int64, elapsed time.Duration) float64 {
	if delta < 0 {
		delta = 0
	}
	return float64(delta) * 8 / elapsed.Seconds() / 1e6
}

// Rate computes the rate between two samples. It returns false when the
// elapsed time is not positive.
func Rate(prev, cur Sample, policy Policy) (float64, bool) {
	elapsed := cur.Timestamp.Sub(prev.Timestamp)
	if elapsed <= 0 {
		return 0, false
	}
	delta := int64(cur.Value) - int64(prev.Value)
	return policy(delta, elapsed), true
}

// Tracker holds the last sample per series and emits rates.
type Tracker struct {
	policy Policy

	mu   sync.Mutex
	last map[string]Sample
}

// NewTracker returns a Tracker applying policy to every series.
// A nil policy defaults to PerSecond.
func NewTracker(policy Policy) *Tracker {
	if policy == nil {
		policy = PerSecond
	}
	return &Tracker{
		policy: policy,
		last:   make(map[string]Sample),
	}
}

// Sample records raw for key at now and returns the rate since the previous
// sample of the same key.
func (t *Tracker) Sample(key string, raw uint64, now time.Time) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := Sample{Value: raw, Timestamp: now}
	prev, ok := t.last[key]
	if !ok {
		t.last[key] = cur
		return Result{}
	}

	rate, ok := Rate(prev, cur, t.policy)
	if !ok {
		return Result{}
	}
	t.last[key] = cur
	return Result{PerSecond: &rate}
}

// Forget drops the series for key.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, key)
}

// ForgetPrefix drops every series whose key starts with prefix.
func (t *Tracker) ForgetPrefix(prefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.last {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(t.last, k)
		}
	}
}

// Reset drops all series.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.last)
}

// Len returns the number of tracked series.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}
