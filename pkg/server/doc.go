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

// Package server exposes hostpulse snapshots over HTTP.
//
// # Architecture
//
// The server is a thin transport over a snapshotter.Source (pull) and an
// optional snapshotter.Broadcaster (push):
//
//   - GET /v1/snapshot returns the cached snapshot; ?force=true runs a cycle
//   - GET /v1/stream upgrades to a websocket and sends one JSON snapshot per tick
//   - GET /metrics serves Prometheus metrics
//   - GET /health and GET /ready are liveness and readiness probes
//   - GET / lists the routes
//
// API routes pass through request ID, panic recovery, rate limiting
// (golang.org/x/time/rate), logging and metrics middleware. When started
// under systemd the server reports readiness and shutdown through sd_notify.
//
// # Usage
//
//	s := server.New(
//		server.WithName("hostpulsed"),
//		server.WithVersion(version),
//		server.WithSource(cache),
//		server.WithBroadcaster(broadcaster),
//	)
//	if err := s.Run(ctx); err != nil {
//		return err
//	}
//
// # Error Responses
//
// Errors use a single JSON shape:
//
//	{
//	  "code": "SERVICE_UNAVAILABLE",
//	  "message": "snapshot unavailable",
//	  "requestId": "9f1c...",
//	  "timestamp": "2025-06-01T12:00:00Z",
//	  "retryable": true
//	}
//
// Codes are the pkg/errors codes. Rate-limited requests get 429 with a
// Retry-After header.
package server
