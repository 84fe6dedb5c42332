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

package collector

import (
	"io"
	"log/slog"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/collector/host"
	"github.com/NVIDIA/hostpulse/pkg/collector/network"
	"github.com/NVIDIA/hostpulse/pkg/collector/storage"
	"github.com/NVIDIA/hostpulse/pkg/config"
	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
	"github.com/NVIDIA/hostpulse/pkg/inventory/container"
	"github.com/NVIDIA/hostpulse/pkg/inventory/vm"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
// Create methods return nil for sections disabled in configuration.
type Factory interface {
	CreateHostCollector() *host.Collector
	CreateNetworkCollector() *network.Collector
	CreateArrayCollector() *storage.Collector
	CreateContainerInventory() (*container.Inventory, error)
	CreateVMInventory() *vm.Inventory
}

// Option configures a DefaultFactory.
type Option func(*DefaultFactory)

// WithExecutor replaces the executor derived from the target configuration.
func WithExecutor(e executor.Executor) Option {
	return func(f *DefaultFactory) {
		f.exec = e
	}
}

// WithClock sets the clock shared by every created component.
func WithClock(c clock.Clock) Option {
	return func(f *DefaultFactory) {
		f.clock = c
	}
}

// DefaultFactory creates collectors with production dependencies.
type DefaultFactory struct {
	cfg     *config.Config
	exec    executor.Executor
	clock   clock.Clock
	closers []io.Closer
}

// NewDefaultFactory creates a factory for cfg. Unless WithExecutor is given
// the executor is local or SSH according to cfg.Target.
func NewDefaultFactory(cfg *config.Config, opts ...Option) (*DefaultFactory, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	f := &DefaultFactory{
		cfg:   cfg,
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.exec == nil {
		switch cfg.Target.Mode {
		case config.ModeSSH:
			ssh, err := executor.NewSSH(cfg.SSH())
			if err != nil {
				return nil, err
			}
			f.exec = ssh
			f.closers = append(f.closers, ssh)
		case config.ModeLocal, "":
			local := executor.NewLocal()
			local.Timeout = cfg.Collector.CommandTimeout
			f.exec = local
		default:
			return nil, errors.NewWithContext(errors.ErrCodeInvalidConfig, "unknown target mode",
				map[string]any{"mode": cfg.Target.Mode})
		}
	}
	return f, nil
}

// Executor returns the executor shared by the created components.
func (f *DefaultFactory) Executor() executor.Executor {
	return f.exec
}

// CreateHostCollector creates the CPU, memory, uptime and hostname collector.
func (f *DefaultFactory) CreateHostCollector() *host.Collector {
	return host.NewCollector(f.exec, host.WithClock(f.clock))
}

// CreateNetworkCollector creates the interface throughput collector.
func (f *DefaultFactory) CreateNetworkCollector() *network.Collector {
	return network.NewCollector(f.exec,
		network.WithClock(f.clock),
		network.WithInterface(f.cfg.Network.Interface),
	)
}

// CreateArrayCollector creates the array usage collector.
func (f *DefaultFactory) CreateArrayCollector() *storage.Collector {
	if !f.cfg.Array.Enabled {
		return nil
	}
	return storage.NewCollector(f.exec, f.cfg.Array.Mount)
}

// CreateContainerInventory creates the container inventory over the
// configured runtime. The caller starts its event listener.
func (f *DefaultFactory) CreateContainerInventory() (*container.Inventory, error) {
	cc := f.cfg.Containers
	if !cc.Enabled {
		return nil, nil
	}

	var rt container.Runtime
	switch cc.Runtime {
	case config.RuntimeAPI:
		api, err := container.NewAPIRuntime(cc.DockerHost)
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, api)
		rt = api
	case config.RuntimeCLI, "":
		rt = container.NewCLIRuntime(f.exec)
	default:
		return nil, errors.NewWithContext(errors.ErrCodeInvalidConfig, "unknown container runtime",
			map[string]any{"runtime": cc.Runtime})
	}

	builder := container.NewBuilder(
		container.WithWebUILabel(cc.WebUILabel),
		container.WithIconLabel(cc.IconLabel),
		container.WithFallbackHost(f.fallbackHost()),
	)

	return container.New(rt,
		container.WithBuilder(builder),
		container.WithClock(f.clock),
		container.WithStats(cc.Stats),
	), nil
}

// fallbackHost is the host used in container URLs when a port is published
// on the target rather than reachable by container IP.
func (f *DefaultFactory) fallbackHost() string {
	if f.cfg.Containers.FallbackHost != "" {
		return f.cfg.Containers.FallbackHost
	}
	if f.cfg.Target.Mode == config.ModeSSH {
		return f.cfg.Target.SSH.Host
	}
	return ""
}

// CreateVMInventory creates the virsh-backed VM inventory.
func (f *DefaultFactory) CreateVMInventory() *vm.Inventory {
	if !f.cfg.VMs.Enabled {
		return nil
	}
	return vm.New(f.exec,
		vm.WithClock(f.clock),
		vm.WithStaleAfter(f.cfg.VMs.StaleAfter),
	)
}

// Close releases connections opened by the factory or its components.
func (f *DefaultFactory) Close() error {
	var first error
	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close collector resource", "error", err)
			if first == nil {
				first = err
			}
		}
	}
	f.closers = nil
	return first
}
