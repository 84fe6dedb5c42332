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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
	"github.com/NVIDIA/hostpulse/pkg/serializer"
	"github.com/NVIDIA/hostpulse/pkg/snapshotter"
)

func snapshotCmd() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Collect one snapshot and print it",
		Description: `Runs every enabled collector once and writes the assembled snapshot.

Sections that fail are reported as null or empty instead of failing the
command. Use --format table for a compact per-section summary.

# Examples

  hostpulse snapshot
  hostpulse --ssh-host tower.lan --ssh-user root snapshot --format yaml
  hostpulse snapshot --no-containers --output snapshot.json`,
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
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

			ctx, cancel := context.WithTimeout(ctx, defaults.CLISnapshotTimeout)
			defer cancel()

			snap := p.Assembler.Assemble(ctx)

			out := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
			if c, ok := out.(serializer.Closer); ok {
				defer c.Close()
			}
			return out.Serialize(ctx, snap)
		},
	}
}
