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

package container

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/hostpulse/pkg/errors"
)

// statsConcurrency bounds parallel per-container stats requests.
const statsConcurrency = 8

// APIRuntime talks to the Docker Engine API.
type APIRuntime struct {
	cli *client.Client
}

// NewAPIRuntime connects to host, or to DOCKER_HOST and the default socket
// when host is empty.
func NewAPIRuntime(host string) (*APIRuntime, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "failed to create docker client", err)
	}
	return &APIRuntime{cli: cli}, nil
}

// Close releases the client's connections.
func (r *APIRuntime) Close() error {
	return r.cli.Close()
}

// List implements Runtime.
func (r *APIRuntime) List(ctx context.Context, ids ...string) ([]Summary, error) {
	args := filters.NewArgs()
	for _, id := range ids {
		args.Add("id", id)
	}
	list, err := r.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(list))
	for _, c := range list {
		out = append(out, summaryFromAPI(c))
	}
	return out, nil
}

func summaryFromAPI(c types.Container) Summary {
	s := Summary{
		ID:     c.ID,
		Image:  c.Image,
		Status: c.Status,
		State:  c.State,
		Ports:  formatPorts(c.Ports),
	}
	if len(c.Names) > 0 {
		s.Name = c.Names[0]
	}
	return s
}

// formatPorts renders API ports the way `docker ps` prints them, so both
// runtimes share ParsePorts.
func formatPorts(ports []types.Port) string {
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		proto := p.Type
		if proto == "" {
			proto = defaultProtocol
		}
		if p.PublicPort == 0 {
			parts = append(parts, fmt.Sprintf("%d/%s", p.PrivatePort, proto))
			continue
		}
		if p.IP != "" {
			parts = append(parts, fmt.Sprintf("%s:%d->%d/%s", p.IP, p.PublicPort, p.PrivatePort, proto))
			continue
		}
		parts = append(parts, fmt.Sprintf("%d->%d/%s", p.PublicPort, p.PrivatePort, proto))
	}
	return strings.Join(parts, ", ")
}

// Inspect implements Runtime. The API has no batch inspect, so ids are
// inspected one by one; containers that vanished meanwhile are skipped.
func (r *APIRuntime) Inspect(ctx context.Context, ids []string) ([]Details, error) {
	out := make([]Details, 0, len(ids))
	for _, id := range ids {
		c, err := r.cli.ContainerInspect(ctx, id)
		if err != nil {
			if client.IsErrNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, detailsFromInspect(c))
	}
	return out, nil
}

// Stats implements Runtime with one non-streaming stats call per container.
func (r *APIRuntime) Stats(ctx context.Context, ids []string) (map[string]Stats, error) {
	results := make([]*Stats, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			s, err := r.containerStats(gctx, id)
			if err != nil {
				slog.Debug("container stats unavailable",
					slog.String("id", id),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := make(map[string]Stats, len(ids))
	for i, s := range results {
		if s != nil {
			res[ids[i]] = *s
		}
	}
	return res, nil
}

func (r *APIRuntime) containerStats(ctx context.Context, id string) (*Stats, error) {
	resp, err := r.cli.ContainerStats(ctx, id, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw types.StatsJSON
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, "invalid stats response", err)
	}
	s := statsFromAPI(&raw)
	return &s, nil
}

func statsFromAPI(raw *types.StatsJSON) Stats {
	s := Stats{
		CPUPercent:    cpuPercent(raw),
		MemUsedBytes:  raw.MemoryStats.Usage,
		MemLimitBytes: raw.MemoryStats.Limit,
	}
	if s.MemLimitBytes > 0 {
		s.MemPercent = float64(s.MemUsedBytes) / float64(s.MemLimitBytes) * 100
	}
	for _, n := range raw.Networks {
		s.NetRxBytes += n.RxBytes
		s.NetTxBytes += n.TxBytes
	}
	return s
}

// cpuPercent follows the docker CLI: container CPU delta over system CPU
// delta, scaled by the number of online CPUs.
func cpuPercent(raw *types.StatsJSON) float64 {
	cpuDelta := float64(raw.CPUStats.CPUUsage.TotalUsage) - float64(raw.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(raw.CPUStats.SystemUsage) - float64(raw.PreCPUStats.SystemUsage)
	if cpuDelta <= 0 || systemDelta <= 0 {
		return 0
	}
	cpus := float64(raw.CPUStats.OnlineCPUs)
	if cpus == 0 {
		cpus = float64(len(raw.CPUStats.CPUUsage.PercpuUsage))
	}
	if cpus == 0 {
		cpus = 1
	}
	return cpuDelta / systemDelta * cpus * 100
}

// Events implements Runtime by consuming the engine's event stream.
func (r *APIRuntime) Events(ctx context.Context, fn func(Event)) error {
	args := filters.NewArgs(filters.Arg("type", string(events.ContainerEventType)))
	msgs, errs := r.cli.Events(ctx, types.EventsOptions{Filters: args})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			if err == nil {
				return errors.New(errors.ErrCodeUnavailable, "docker event stream closed")
			}
			return err
		case msg := <-msgs:
			fn(eventFromMessage(msg))
		}
	}
}
