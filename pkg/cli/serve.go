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

package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/hostpulse/pkg/api"
	"github.com/NVIDIA/hostpulse/pkg/version"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve snapshots over HTTP and websocket",
		Description: `Starts the same server as hostpulsed in the foreground:

  GET /v1/snapshot[?force=true]   latest snapshot (pull)
  GET /v1/stream                  websocket push every --push-interval
  GET /health, /ready, /metrics`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "listen address (default: all interfaces)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "listen port",
			},
			&cli.DurationFlag{
				Name:  "push-interval",
				Usage: "time between websocket pushes",
			},
			&cli.DurationFlag{
				Name:  "min-refresh",
				Usage: "minimum age of a pulled snapshot before collectors run again",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("address") {
				cfg.Server.Address = cmd.String("address")
			}
			if cmd.IsSet("port") {
				cfg.Server.Port = int(cmd.Int("port"))
			}
			if cmd.IsSet("push-interval") {
				cfg.Transport.PushInterval = cmd.Duration("push-interval")
			}
			if cmd.IsSet("min-refresh") {
				cfg.Transport.MinRefreshInterval = cmd.Duration("min-refresh")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return api.Run(ctx, cfg, name, version.String(), factoryOptions...)
		},
	}
}
