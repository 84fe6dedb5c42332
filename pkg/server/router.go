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
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NVIDIA/hostpulse/pkg/serializer"
)

// setupRoutes registers the API behind the middleware chain and the probe
// and metrics endpoints without it.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDefault)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/snapshot", s.withMiddleware(s.handleSnapshot))
	mux.HandleFunc("GET /v1/stream", s.withMiddleware(s.handleStream))

	for path, handler := range s.config.Handlers {
		mux.HandleFunc(path, s.withMiddleware(handler))
	}

	return mux
}

func (s *Server) routes() []string {
	routes := []string{
		"GET /v1/snapshot",
		"GET /v1/stream",
		"GET /metrics",
		"GET /health",
		"GET /ready",
	}
	extra := make([]string, 0, len(s.config.Handlers))
	for path := range s.config.Handlers {
		extra = append(extra, path)
	}
	sort.Strings(extra)
	return append(routes, extra...)
}

// handleDefault lists what the server offers.
func (s *Server) handleDefault(w http.ResponseWriter, _ *http.Request) {
	resp := struct {
		Name       string   `json:"name"`
		Version    string   `json:"version"`
		APIVersion string   `json:"apiVersion"`
		Ready      bool     `json:"ready"`
		Timestamp  string   `json:"timestamp"`
		Routes     []string `json:"routes"`
	}{
		Name:       s.config.Name,
		Version:    s.config.Version,
		APIVersion: DefaultAPIVersion,
		Ready:      s.IsReady(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Routes:     s.routes(),
	}

	serializer.RespondJSON(w, http.StatusOK, resp)
}
