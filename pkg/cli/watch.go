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
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
	"github.com/NVIDIA/hostpulse/pkg/serializer"
	"github.com/NVIDIA/hostpulse/pkg/snapshotter"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print snapshots on an interval until interrupted",
		Description: `Keeps the container inventory live from runtime events and prints a
fresh snapshot every --interval. A tick that starts while the previous
collection is still running shares its result.`,
		Flags: []cli.Flag{
			formatFlag,
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "time between printed snapshots",
				Value: defaults.PushInterval,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "stop after this many snapshots (0 runs until interrupted)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			interval := cmd.Duration("interval")
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			p, err := snapshotter.NewPipeline(cfg, factoryOptions...)
			if err != nil {
				return fmt.Errorf("failed to initialize collectors: %w", err)
			}
			defer p.Close()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			p.Start(ctx)

			b := snapshotter.NewBroadcaster(p.Cache, interval)
			updates, unsubscribe := b.Subscribe()
			defer unsubscribe()

			done := make(chan struct{})
			go func() {
				defer close(done)
				b.Run(ctx)
			}()
			defer func() {
				cancel()
				<-done
			}()

			out := serializer.NewWriter(format, cmd.Root().Writer)
			limit := int(cmd.Int("count"))
			for n := 0; limit == 0 || n < limit; n++ {
				select {
				case <-ctx.Done():
					return nil
				case snap, ok := <-updates:
					if !ok {
						return nil
					}
					if err := out.Serialize(ctx, snap); err != nil {
						return err
					}
					slog.Debug("snapshot printed", "capturedAt", snap.CapturedAt.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}
