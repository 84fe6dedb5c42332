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
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/hostpulse/pkg/collector"
	"github.com/NVIDIA/hostpulse/pkg/config"
	"github.com/NVIDIA/hostpulse/pkg/serializer"
)

// factoryOptions are passed to every pipeline the CLI builds. Tests use it
// to inject an executor.
var factoryOptions []collector.Option

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("output format %v", serializer.SupportedFormats()),
		Value:   string(serializer.FormatJSON),
	}
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			Sources: cli.EnvVars(config.EnvConfigFile),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:  "ssh-host",
			Usage: "sample this host over SSH instead of the local machine",
		},
		&cli.IntFlag{
			Name:  "ssh-port",
			Usage: "SSH port",
		},
		&cli.StringFlag{
			Name:  "ssh-user",
			Usage: "SSH user",
		},
		&cli.StringFlag{
			Name:  "ssh-identity",
			Usage: "SSH private key file",
		},
		&cli.StringFlag{
			Name:  "ssh-known-hosts",
			Usage: "known_hosts file used to verify the SSH host key",
		},
		&cli.BoolFlag{
			Name:  "ssh-insecure",
			Usage: "skip SSH host key verification",
		},
		&cli.StringFlag{
			Name:  "interface",
			Usage: "network interface to report (default: the default route)",
		},
		&cli.StringFlag{
			Name:  "array-mount",
			Usage: "mount reported as array usage",
		},
		&cli.BoolFlag{
			Name:  "no-array",
			Usage: "disable array usage",
		},
		&cli.StringFlag{
			Name:  "container-runtime",
			Usage: "container runtime access: cli or api",
		},
		&cli.StringFlag{
			Name:  "docker-host",
			Usage: "Docker daemon address for the api runtime",
		},
		&cli.BoolFlag{
			Name:  "container-stats",
			Usage: "include per-container CPU, memory and network metrics",
		},
		&cli.BoolFlag{
			Name:  "no-containers",
			Usage: "disable the container inventory",
		},
		&cli.BoolFlag{
			Name:  "no-vms",
			Usage: "disable the VM inventory",
		},
		&cli.DurationFlag{
			Name:  "collector-timeout",
			Usage: "upper bound for each collector in a cycle",
		},
	}
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format %q, expected one of %v", f, serializer.SupportedFormats())
	}
	return f, nil
}

// loadConfig layers flags over the file and environment configuration.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("ssh-host") {
		cfg.Target.Mode = config.ModeSSH
		cfg.Target.SSH.Host = cmd.String("ssh-host")
	}
	if cmd.IsSet("ssh-port") {
		cfg.Target.SSH.Port = int(cmd.Int("ssh-port"))
	}
	if cmd.IsSet("ssh-user") {
		cfg.Target.SSH.User = cmd.String("ssh-user")
	}
	if cmd.IsSet("ssh-identity") {
		cfg.Target.SSH.IdentityFile = cmd.String("ssh-identity")
	}
	if cmd.IsSet("ssh-known-hosts") {
		cfg.Target.SSH.KnownHostsFile = cmd.String("ssh-known-hosts")
	}
	if cmd.IsSet("ssh-insecure") {
		cfg.Target.SSH.InsecureIgnoreHostKey = cmd.Bool("ssh-insecure")
	}
	if cmd.IsSet("interface") {
		cfg.Network.Interface = cmd.String("interface")
	}
	if cmd.IsSet("array-mount") {
		cfg.Array.Mount = cmd.String("array-mount")
	}
	if cmd.Bool("no-array") {
		cfg.Array.Enabled = false
	}
	if cmd.IsSet("container-runtime") {
		cfg.Containers.Runtime = cmd.String("container-runtime")
	}
	if cmd.IsSet("docker-host") {
		cfg.Containers.DockerHost = cmd.String("docker-host")
	}
	if cmd.IsSet("container-stats") {
		cfg.Containers.Stats = cmd.Bool("container-stats")
	}
	if cmd.Bool("no-containers") {
		cfg.Containers.Enabled = false
	}
	if cmd.Bool("no-vms") {
		cfg.VMs.Enabled = false
	}
	if cmd.IsSet("collector-timeout") {
		cfg.Collector.Timeout = cmd.Duration("collector-timeout")
	}
}
