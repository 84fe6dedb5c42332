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

package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/snapshotter"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu     sync.Mutex
	forced []bool
	err    error
}

func (f *fakeSource) GetSnapshot(_ context.Context, force bool) (*snapshotter.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced = append(f.forced, force)
	if f.err != nil {
		return nil, f.err
	}
	snap := snapshotter.NewSnapshot()
	snap.CapturedAt = testTime
	snap.Host.Hostname = "tower"
	return snap, nil
}

func (f *fakeSource) calls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.forced...)
}

func serve(t *testing.T, s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestIndex(t *testing.T) {
	s := New(WithName("hostpulsed"), WithVersion("1.2.3"),
		WithHandler(map[string]http.HandlerFunc{"GET /v1/extra": func(http.ResponseWriter, *http.Request) {}}))
	rec := serve(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Name    string   `json:"name"`
		Version string   `json:"version"`
		Ready   bool     `json:"ready"`
		Routes  []string `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "hostpulsed", body.Name)
	assert.Equal(t, "1.2.3", body.Version)
	assert.False(t, body.Ready)
	assert.Contains(t, body.Routes, "GET /v1/snapshot")
	assert.Contains(t, body.Routes, "GET /v1/extra")
}

type lastSource struct {
	fakeSource
}

func (l *lastSource) Last() *snapshotter.Snapshot {
	snap := snapshotter.NewSnapshot()
	snap.CapturedAt = testTime
	return snap
}

func TestReadyDetails(t *testing.T) {
	b := snapshotter.NewBroadcaster(&fakeSource{}, time.Hour)
	_, cancel := b.Subscribe()
	defer cancel()

	s := New(WithSource(&lastSource{}), WithBroadcaster(b))
	s.SetReady(true)

	rec := serve(t, s, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	require.NotNil(t, body.LastSnapshot)
	assert.True(t, testTime.Equal(*body.LastSnapshot))
	require.NotNil(t, body.Subscribers)
	assert.Equal(t, 1, *body.Subscribers)
}

func TestUnknownRoute(t *testing.T) {
	rec := serve(t, New(), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	s := New()

	rec := serve(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = serve(t, s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_ready"`)

	s.SetReady(true)
	rec = serve(t, s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, s, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	rec := serve(t, New(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hostpulse_stream_connections")
}

func TestSnapshot(t *testing.T) {
	src := &fakeSource{}
	s := New(WithSource(src))

	rec := serve(t, s, http.MethodGet, "/v1/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, DefaultAPIVersion, rec.Header().Get("X-API-Version"))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"capturedAt", "host", "network", "arrayUsage", "containers", "vms"} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, "[]", string(body["containers"]))
	assert.Equal(t, "null", string(body["network"]))

	rec = serve(t, s, http.MethodGet, "/v1/snapshot?force=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{false, true}, src.calls())
}

func TestSnapshotInvalidForce(t *testing.T) {
	src := &fakeSource{}
	rec := serve(t, New(WithSource(src)), http.MethodGet, "/v1/snapshot?force=sometimes", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(errors.ErrCodeInvalidRequest), decodeError(t, rec).Code)
	assert.Empty(t, src.calls())
}

func TestSnapshotErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      errors.ErrorCode
		retryable bool
	}{
		{"unavailable", errors.New(errors.ErrCodeUnavailable, "down"), http.StatusServiceUnavailable, errors.ErrCodeUnavailable, true},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, errors.ErrCodeTimeout, true},
		{"unknown", assert.AnError, http.StatusInternalServerError, errors.ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, New(WithSource(&fakeSource{err: tt.err})), http.MethodGet, "/v1/snapshot", nil)
			require.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, string(tt.code), resp.Code)
			assert.Equal(t, tt.retryable, resp.Retryable)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestSnapshotWithoutSource(t *testing.T) {
	rec := serve(t, New(), http.MethodGet, "/v1/snapshot", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := New(WithSource(&fakeSource{}), WithRateLimit(1, 1))

	rec := serve(t, s, http.MethodGet, "/v1/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = serve(t, s, http.MethodGet, "/v1/snapshot", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, string(errors.ErrCodeRateLimitExceeded), decodeError(t, rec).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	s := New(WithSource(&fakeSource{}), WithRateLimit(0, 0))
	for range 5 {
		rec := serve(t, s, http.MethodGet, "/v1/snapshot", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestPanicRecovery(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{
		"GET /v1/boom": func(http.ResponseWriter, *http.Request) { panic("boom") },
	}))
	rec := serve(t, s, http.MethodGet, "/v1/boom", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(errors.ErrCodeInternal), decodeError(t, rec).Code)
}

func TestRequestID(t *testing.T) {
	s := New(WithSource(&fakeSource{}))

	id := uuid.NewString()
	rec := serve(t, s, http.MethodGet, "/v1/snapshot", http.Header{"X-Request-Id": {id}})
	assert.Equal(t, id, rec.Header().Get("X-Request-Id"))

	rec = serve(t, s, http.MethodGet, "/v1/snapshot", http.Header{"X-Request-Id": {"not-a-uuid"}})
	got := rec.Header().Get("X-Request-Id")
	assert.NotEqual(t, "not-a-uuid", got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestNegotiateAPIVersion(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"", "v1"},
		{"application/json", "v1"},
		{"application/vnd.hostpulse.v1+json", "v1"},
		{"text/html, application/vnd.hostpulse.v1+json;q=0.9", "v1"},
		{"application/vnd.hostpulse.v9+json", "v1"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", tt.accept)
		assert.Equal(t, tt.want, negotiateAPIVersion(req), tt.accept)
	}
}

func TestStream(t *testing.T) {
	src := &fakeSource{}
	b := snapshotter.NewBroadcaster(src, time.Hour)
	s := New(WithBroadcaster(b), WithRateLimit(0, 0))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	b.Tick(context.Background())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var snap snapshotter.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, "tower", snap.Host.Hostname)
	assert.True(t, snap.CapturedAt.Equal(testTime))
	assert.Equal(t, []bool{true}, src.calls())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return b.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamDisabled(t *testing.T) {
	rec := serve(t, New(), http.MethodGet, "/v1/stream", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServeLifecycle(t *testing.T) {
	var mu sync.Mutex
	var states []string
	origNotify, origWatchdog := sdNotify, sdWatchdogEnabled
	t.Cleanup(func() { sdNotify, sdWatchdogEnabled = origNotify, origWatchdog })
	sdNotify = func(_ bool, state string) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, state)
		return true, nil
	}
	sdWatchdogEnabled = func(bool) (time.Duration, error) { return 0, nil }

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(WithSource(&fakeSource{}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, s.IsReady, 2*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + ln.Addr().String() + "/v1/snapshot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, s.IsReady())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{sdReady, sdStopping}, states)
}
