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
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/hostpulse/pkg/logging"
	"github.com/NVIDIA/hostpulse/pkg/serializer"
	"github.com/NVIDIA/hostpulse/pkg/version"
)

const name = "hostpulse"

// Execute runs the hostpulse CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Host and workload metrics for a single server",
		Version:               version.String(),
		EnableShellCompletion: true,
		Flags:                 globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version.String(), cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			snapshotCmd(),
			watchCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("output format %v", serializer.SupportedFormats()),
				Value:   string(serializer.FormatTable),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			w := serializer.NewWriter(format, cmd.Root().Writer)
			defer w.Close()
			return w.Serialize(ctx, version.Get())
		},
	}
}
