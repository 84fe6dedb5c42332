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

package config

import (
	"path"
	"regexp"
	"time"

	"github.com/NVIDIA/hostpulse/pkg/defaults"
	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
	"github.com/NVIDIA/hostpulse/pkg/inventory/container"
	"github.com/NVIDIA/hostpulse/pkg/serializer"
)

// Target modes.
const (
	ModeLocal = "local"
	ModeSSH   = "ssh"
)

// Container runtimes.
const (
	RuntimeCLI = "cli"
	RuntimeAPI = "api"
)

var interfaceName = regexp.MustCompile(`^[A-Za-z0-9_.:@-]{1,15}$`)

// Config is the complete hostpulse configuration.
type Config struct {
	Target     TargetConfig    `yaml:"target"`
	Network    NetworkConfig   `yaml:"network"`
	Array      ArrayConfig     `yaml:"array"`
	Containers ContainerConfig `yaml:"containers"`
	VMs        VMConfig        `yaml:"vms"`
	Collector  CollectorConfig `yaml:"collector"`
	Transport  TransportConfig `yaml:"transport"`
	Server     ServerConfig    `yaml:"server"`
}

// TargetConfig selects the machine that is sampled.
type TargetConfig struct {
	Mode string    `yaml:"mode"`
	SSH  SSHConfig `yaml:"ssh"`
}

// SSHConfig holds connection parameters for ModeSSH.
type SSHConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	User                  string `yaml:"user"`
	Password              string `yaml:"password"`
	IdentityFile          string `yaml:"identityFile"`
	KnownHostsFile        string `yaml:"knownHostsFile"`
	InsecureIgnoreHostKey bool   `yaml:"insecureIgnoreHostKey"`
}

// NetworkConfig selects the interface whose throughput is reported.
// An empty Interface uses the default route.
type NetworkConfig struct {
	Interface string `yaml:"interface"`
}

// ArrayConfig selects the mount reported as array usage.
type ArrayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mount   string `yaml:"mount"`
}

// ContainerConfig configures the container inventory.
type ContainerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Runtime      string `yaml:"runtime"`
	DockerHost   string `yaml:"dockerHost"`
	Stats        bool   `yaml:"stats"`
	WebUILabel   string `yaml:"webUILabel"`
	IconLabel    string `yaml:"iconLabel"`
	FallbackHost string `yaml:"fallbackHost"`
}

// VMConfig configures the VM inventory.
type VMConfig struct {
	Enabled    bool          `yaml:"enabled"`
	StaleAfter time.Duration `yaml:"staleAfter"`
}

// CollectorConfig bounds collection.
type CollectorConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	CommandTimeout time.Duration `yaml:"commandTimeout"`
}

// TransportConfig sets pull and push cadence.
type TransportConfig struct {
	MinRefreshInterval time.Duration `yaml:"minRefreshInterval"`
	PushInterval       time.Duration `yaml:"pushInterval"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Address        string  `yaml:"address"`
	Port           int     `yaml:"port"`
	RateLimit      float64 `yaml:"rateLimit"`
	RateLimitBurst int     `yaml:"rateLimitBurst"`
}

// Default returns a Config sampling the local machine.
func Default() *Config {
	return &Config{
		Target: TargetConfig{Mode: ModeLocal},
		Array: ArrayConfig{
			Enabled: true,
			Mount:   "/mnt/user",
		},
		Containers: ContainerConfig{
			Enabled:    true,
			Runtime:    RuntimeCLI,
			WebUILabel: container.DefaultWebUILabel,
			IconLabel:  container.DefaultIconLabel,
		},
		VMs: VMConfig{
			Enabled:    true,
			StaleAfter: defaults.VMStaleAfter,
		},
		Collector: CollectorConfig{
			Timeout:        defaults.CollectorTimeout,
			CommandTimeout: defaults.CommandTimeout,
		},
		Transport: TransportConfig{
			MinRefreshInterval: defaults.MinRefreshInterval,
			PushInterval:       defaults.PushInterval,
		},
		Server: ServerConfig{
			Port:           8080,
			RateLimit:      100,
			RateLimitBurst: 200,
		},
	}
}

// Load builds a Config from defaults, the optional YAML file at path and
// the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.merge(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge decodes the file over the current values so keys absent from the
// file keep their defaults.
func (c *Config) merge(file string) error {
	reader, err := serializer.NewFileReaderAuto(file)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, "failed to open config file", err)
	}
	defer reader.Close()

	if err := reader.Strict().Deserialize(c); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInvalidConfig, "failed to parse config file", err,
			map[string]any{"path": file})
	}
	return nil
}

func invalid(msg string, kv ...any) error {
	ctx := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			ctx[k] = kv[i+1]
		}
	}
	if len(ctx) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, msg)
	}
	return errors.NewWithContext(errors.ErrCodeInvalidConfig, msg, ctx)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Target.Mode {
	case ModeLocal:
	case ModeSSH:
		if err := c.SSH().Validate(); err != nil {
			return err
		}
	default:
		return invalid("unknown target mode", "mode", c.Target.Mode)
	}

	if c.Network.Interface != "" && !interfaceName.MatchString(c.Network.Interface) {
		return invalid("invalid network interface name", "interface", c.Network.Interface)
	}

	if c.Array.Enabled && !path.IsAbs(c.Array.Mount) {
		return invalid("array mount must be an absolute path", "mount", c.Array.Mount)
	}

	if c.Containers.Enabled {
		switch c.Containers.Runtime {
		case RuntimeCLI:
		case RuntimeAPI:
			if c.Target.Mode == ModeSSH && c.Containers.DockerHost == "" {
				return invalid("api runtime on an ssh target requires dockerHost")
			}
		default:
			return invalid("unknown container runtime", "runtime", c.Containers.Runtime)
		}
	}

	if c.VMs.Enabled && c.VMs.StaleAfter <= 0 {
		return invalid("vm staleAfter must be positive", "staleAfter", c.VMs.StaleAfter.String())
	}
	if c.Collector.Timeout <= 0 {
		return invalid("collector timeout must be positive", "timeout", c.Collector.Timeout.String())
	}
	if c.Collector.CommandTimeout <= 0 {
		return invalid("command timeout must be positive", "commandTimeout", c.Collector.CommandTimeout.String())
	}
	if c.Transport.MinRefreshInterval < 0 {
		return invalid("minRefreshInterval must not be negative")
	}
	if c.Transport.PushInterval <= 0 {
		return invalid("pushInterval must be positive", "pushInterval", c.Transport.PushInterval.String())
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server port out of range", "port", c.Server.Port)
	}
	if c.Server.RateLimit < 0 || c.Server.RateLimitBurst < 0 {
		return invalid("rate limit must not be negative")
	}
	return nil
}

// SSH converts the target settings into executor form.
func (c *Config) SSH() executor.SSHConfig {
	s := c.Target.SSH
	return executor.SSHConfig{
		Host:                  s.Host,
		Port:                  s.Port,
		User:                  s.User,
		Password:              s.Password,
		IdentityFile:          s.IdentityFile,
		KnownHostsFile:        s.KnownHostsFile,
		InsecureIgnoreHostKey: s.InsecureIgnoreHostKey,
		Timeout:               c.Collector.CommandTimeout,
	}
}
