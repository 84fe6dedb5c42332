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

package api

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NVIDIA/hostpulse/pkg/collector"
	"github.com/NVIDIA/hostpulse/pkg/config"
	"github.com/NVIDIA/hostpulse/pkg/logging"
	"github.com/NVIDIA/hostpulse/pkg/server"
	"github.com/NVIDIA/hostpulse/pkg/snapshotter"
	"github.com/NVIDIA/hostpulse/pkg/version"
)

const name = "hostpulsed"

// Serve loads configuration from HOSTPULSE_CONFIG and the environment,
// then runs the daemon until SIGINT or SIGTERM.
func Serve() error {
	info := version.Get()
	logging.SetDefaultStructuredLogger(name, info.Version)
	slog.Info("starting",
		"name", name,
		"version", info.Version,
		"commit", info.Commit,
		"date", info.Date,
	)

	cfg, err := config.Load(os.Getenv(config.EnvConfigFile))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg, name, info.Version); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// Run wires the collectors, the pull cache and the push broadcaster into an
// HTTP server and serves until ctx is done. opts are passed to the collector
// factory.
func Run(ctx context.Context, cfg *config.Config, appName, appVersion string, opts ...collector.Option) error {
	p, err := snapshotter.NewPipeline(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			slog.Warn("failed to close collectors", "error", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.Start(ctx)

	slog.Info("collectors ready",
		"target", cfg.Target.Mode,
		"containers", p.Inventory != nil,
		"minRefresh", p.Cache.MinInterval(),
		"pushInterval", cfg.Transport.PushInterval,
	)

	s := server.New(
		server.WithName(appName),
		server.WithVersion(appVersion),
		server.WithAddress(cfg.Server.Address, cfg.Server.Port),
		server.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateLimitBurst),
		server.WithSource(p.Cache),
		server.WithBroadcaster(snapshotter.NewBroadcaster(p.Cache, cfg.Transport.PushInterval)),
	)

	return s.Run(ctx)
}
