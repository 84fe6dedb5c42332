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
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want EventAction
	}{
		{"die mixed case", Event{Type: "container", ID: "a", Action: "Die"}, ActionRefresh},
		{"destroy", Event{Type: "container", ID: "a", Action: "destroy"}, ActionRemove},
		{"remove upper", Event{Type: "Container", ID: "a", Action: "REMOVE"}, ActionRemove},
		{"start", Event{Type: "container", ID: "a", Action: "start"}, ActionRefresh},
		{"unpause", Event{Type: "container", ID: "a", Action: "unpause"}, ActionRefresh},
		{"rename", Event{Type: "container", ID: "a", Action: "rename"}, ActionRefresh},
		{"health status with detail", Event{Type: "container", ID: "a", Action: "health_status: healthy"}, ActionIgnore},
		{"attach", Event{Type: "container", ID: "a", Action: "attach"}, ActionIgnore},
		{"network event", Event{Type: "network", ID: "a", Action: "destroy"}, ActionIgnore},
		{"image event", Event{Type: "image", ID: "a", Action: "pull"}, ActionIgnore},
		{"missing id", Event{Type: "container", Action: "start"}, ActionIgnore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ev))
		})
	}
}

func TestHandleEventBeforeInitIgnored(t *testing.T) {
	rt := newFakeRuntime(web)
	inv := New(rt)

	got := inv.HandleEvent(t.Context(), Event{Type: "container", ID: "aaa", Action: "start"})
	assert.Equal(t, ActionIgnore, got)
	assert.Equal(t, 0, rt.listCalls)
	assert.False(t, inv.Initialized())
}

func TestEventDuringInitialRefreshApplied(t *testing.T) {
	rt := newFakeRuntime(web, db)
	listed := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	rt.afterList = func(ids []string) {
		if len(ids) == 0 {
			once.Do(func() {
				close(listed)
				<-release
			})
		}
	}
	inv := New(rt)

	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		_, _ = inv.Get(t.Context())
	}()
	<-listed

	// The bulk list already holds "aaa"; it is destroyed before the swap.
	rt.set(db)
	handled := make(chan EventAction, 1)
	go func() {
		handled <- inv.HandleEvent(t.Context(), Event{Type: "container", ID: "aaa", Action: "destroy"})
	}()

	assert.Never(t, func() bool { return len(handled) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"event must wait for the initial refresh")

	close(release)
	<-initDone

	select {
	case action := <-handled:
		assert.Equal(t, ActionRemove, action)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not handled")
	}

	list, err := inv.Get(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb"}, ids(list))
}

func TestHandleEventPaths(t *testing.T) {
	rt := newFakeRuntime(web, db)
	inv := New(rt)
	_, err := inv.Get(t.Context())
	require.NoError(t, err)
	calls := rt.listCalls

	assert.Equal(t, ActionRefresh, inv.HandleEvent(t.Context(), Event{Type: "container", ID: "aaa", Action: "Die"}))
	assert.Equal(t, calls+1, rt.listCalls, "refresh path re-lists one container")

	assert.Equal(t, ActionIgnore, inv.HandleEvent(t.Context(), Event{Type: "volume", ID: "aaa", Action: "destroy"}))
	assert.Equal(t, 2, inv.Len(), "non-container events leave the inventory unchanged")

	assert.Equal(t, ActionRemove, inv.HandleEvent(t.Context(), Event{Type: "container", ID: "aaa", Action: "destroy"}))
	assert.Equal(t, 1, inv.Len())
	assert.Equal(t, calls+1, rt.listCalls, "remove path does not query the runtime")
}

func TestListenAppliesEvents(t *testing.T) {
	rt := newFakeRuntime(web, db)
	inv := New(rt, WithRestartBackoff(time.Millisecond))
	_, err := inv.Get(t.Context())
	require.NoError(t, err)

	delivered := make(chan struct{})
	rt.events = func(ctx context.Context, fn func(Event)) error {
		if rt.eventsCalls.Load() == 1 {
			fn(Event{Type: "container", ID: "bbb", Action: "destroy"})
			close(delivered)
		}
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		inv.Listen(ctx)
		close(done)
	}()

	<-delivered
	assert.Equal(t, 1, inv.Len())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestListenRestartsAfterStreamEnds(t *testing.T) {
	rt := newFakeRuntime()
	rt.events = func(ctx context.Context, fn func(Event)) error {
		return assert.AnError
	}
	inv := New(rt, WithRestartBackoff(5*time.Millisecond))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go inv.Listen(ctx)

	assert.Eventually(t, func() bool {
		return rt.eventsCalls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestListenTimesStreamWithInjectedClock(t *testing.T) {
	var buf syncBuffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	fc := clocktesting.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rt := newFakeRuntime()
	rt.events = func(context.Context, func(Event)) error {
		fc.Step(90 * time.Second)
		return assert.AnError
	}
	inv := New(rt, WithClock(fc), WithRestartBackoff(time.Hour))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go inv.Listen(ctx)

	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("container event stream ended"))
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, buf.String(), `"ran":90000000000`)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func (b *syncBuffer) String() string {
	return string(b.Bytes())
}
