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
	"net/http"
	"time"

	"github.com/NVIDIA/hostpulse/pkg/serializer"
	"github.com/NVIDIA/hostpulse/pkg/snapshotter"
)

// HealthResponse is returned by /health and /ready.
type HealthResponse struct {
	Status       string     `json:"status" yaml:"status"`
	Timestamp    time.Time  `json:"timestamp" yaml:"timestamp"`
	Reason       string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	LastSnapshot *time.Time `json:"lastSnapshot,omitempty" yaml:"lastSnapshot,omitempty"`
	Subscribers  *int       `json:"subscribers,omitempty" yaml:"subscribers,omitempty"`
}

// lastSnapshotter is implemented by sources that keep their latest result.
type lastSnapshotter interface {
	Last() *snapshotter.Snapshot
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// handleReady reports 503 until Serve has started, and otherwise the age
// of the pull cache and the number of stream subscribers when known.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Timestamp: time.Now().UTC()}
	if !s.IsReady() {
		resp.Status = "not_ready"
		resp.Reason = "server is starting or shutting down"
		serializer.RespondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "ready"
	if ls, ok := s.source.(lastSnapshotter); ok {
		if snap := ls.Last(); snap != nil {
			at := snap.CapturedAt
			resp.LastSnapshot = &at
		}
	}
	if s.broadcaster != nil {
		n := s.broadcaster.Subscribers()
		resp.Subscribers = &n
	}
	serializer.RespondJSON(w, http.StatusOK, resp)
}
