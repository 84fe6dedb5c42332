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

	"golang.org/x/time/rate"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
	"github.com/NVIDIA/hostpulse/pkg/snapshotter"
)

// Config holds server configuration
type Config struct {
	// Server identity
	Name    string
	Version string

	// Additional handlers mounted behind the API middleware
	Handlers map[string]http.HandlerFunc

	// Listen address
	Address string
	Port    int

	// Rate limiting configuration
	RateLimit      rate.Limit // requests per second
	RateLimitBurst int        // burst size

	// Timeouts
	ReadTimeout        time.Duration
	ReadHeaderTimeout  time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	SnapshotTimeout    time.Duration
	StreamWriteTimeout time.Duration
}

// NewConfig returns a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Name:               "hostpulse",
		Version:            "undefined",
		Port:               8080,
		RateLimit:          100,
		RateLimitBurst:     200,
		ReadTimeout:        defaults.ServerReadTimeout,
		ReadHeaderTimeout:  defaults.ServerReadHeaderTimeout,
		WriteTimeout:       defaults.ServerWriteTimeout,
		IdleTimeout:        defaults.ServerIdleTimeout,
		ShutdownTimeout:    defaults.ServerShutdownTimeout,
		SnapshotTimeout:    defaults.SnapshotHandlerTimeout,
		StreamWriteTimeout: defaults.StreamWriteTimeout,
	}
}

// Option configures a Server.
type Option func(*Server)

// WithName sets the name reported by the index route.
func WithName(name string) Option {
	return func(s *Server) {
		s.config.Name = name
	}
}

// WithVersion sets the version reported by the index route.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.config.Version = version
	}
}

// WithAddress sets the listen address and port.
func WithAddress(address string, port int) Option {
	return func(s *Server) {
		s.config.Address = address
		s.config.Port = port
	}
}

// WithRateLimit sets the API token bucket. A zero limit disables limiting.
func WithRateLimit(limit float64, burst int) Option {
	return func(s *Server) {
		s.config.RateLimit = rate.Limit(limit)
		s.config.RateLimitBurst = burst
	}
}

// WithHandler mounts additional API handlers by path.
func WithHandler(handlers map[string]http.HandlerFunc) Option {
	return func(s *Server) {
		if s.config.Handlers == nil {
			s.config.Handlers = make(map[string]http.HandlerFunc, len(handlers))
		}
		for path, h := range handlers {
			s.config.Handlers[path] = h
		}
	}
}

// WithSource sets the pull-mode snapshot source.
func WithSource(src snapshotter.Source) Option {
	return func(s *Server) {
		s.source = src
	}
}

// WithBroadcaster enables the websocket stream.
func WithBroadcaster(b *snapshotter.Broadcaster) Option {
	return func(s *Server) {
		s.broadcaster = b
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}
