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

package snapshotter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/NVIDIA/hostpulse/pkg/collector"
	"github.com/NVIDIA/hostpulse/pkg/config"
	"github.com/NVIDIA/hostpulse/pkg/inventory/container"
)

// Pipeline owns the components behind one target: the factory and its
// connections, the assembler, the pull cache and the container listener.
type Pipeline struct {
	Assembler *Assembler
	Cache     *CachedSource
	Inventory *container.Inventory

	factory *collector.DefaultFactory
	wg      sync.WaitGroup
}

// NewPipeline wires a Pipeline for cfg.
func NewPipeline(cfg *config.Config, opts ...collector.Option) (*Pipeline, error) {
	f, err := collector.NewDefaultFactory(cfg, opts...)
	if err != nil {
		return nil, err
	}

	a, inv, err := FromFactory(f, cfg.Collector.Timeout, nil)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Pipeline{
		Assembler: a,
		Cache:     NewCachedSource(a, cfg.Transport.MinRefreshInterval),
		Inventory: inv,
		factory:   f,
	}, nil
}

// Start runs the container event listener until ctx is done.
func (p *Pipeline) Start(ctx context.Context) {
	if p.Inventory == nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Inventory.Listen(ctx)
	}()
	slog.Debug("container event listener started")
}

// Close waits for the listener started by Start, whose context must
// already be done, and releases connections.
func (p *Pipeline) Close() error {
	p.wg.Wait()
	return p.factory.Close()
}
