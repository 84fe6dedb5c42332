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

package host

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/collector/file"
	"github.com/NVIDIA/hostpulse/pkg/collector/units"
	"github.com/NVIDIA/hostpulse/pkg/defaults"
	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

const (
	procStat    = "/proc/stat"
	procMeminfo = "/proc/meminfo"
	procUptime  = "/proc/uptime"
)

// Memory is the memory section of a host snapshot.
type Memory struct {
	TotalGB     float64 `json:"totalGB" yaml:"totalGB"`
	UsedGB      float64 `json:"usedGB" yaml:"usedGB"`
	UsedPercent float64 `json:"usedPercent" yaml:"usedPercent"`
}

// Snapshot is the host section of a snapshot.
type Snapshot struct {
	UptimeSeconds int64   `json:"uptimeSeconds" yaml:"uptimeSeconds"`
	CPUPercent    float64 `json:"cpuPercent" yaml:"cpuPercent"`
	Memory        Memory  `json:"memory" yaml:"memory"`
	Hostname      string  `json:"hostname" yaml:"hostname"`
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock sets the clock used for the CPU sampling delay.
func WithClock(c clock.Clock) Option {
	return func(h *Collector) {
		h.clock = c
	}
}

// WithSampleInterval overrides the delay between the two CPU reads.
func WithSampleInterval(d time.Duration) Option {
	return func(h *Collector) {
		h.sampleInterval = d
	}
}

// Collector gathers host statistics.
type Collector struct {
	exec           executor.Executor
	clock          clock.Clock
	sampleInterval time.Duration
	meminfo        *file.Parser
}

// NewCollector returns a Collector reading through exec.
func NewCollector(exec executor.Executor, opts ...Option) *Collector {
	c := &Collector{
		exec:           exec,
		clock:          clock.RealClock{},
		sampleInterval: defaults.CPUSampleInterval,
		meminfo:        file.NewParser(file.WithKVDelimiter(":"), file.WithVTrimSuffix("kB")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect gathers all host statistics concurrently.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cpu, err := c.CPUPercent(gctx)
		if err != nil {
			slog.Warn("cpu sample failed", slog.String("error", err.Error()))
		}
		snap.CPUPercent = cpu
		return nil
	})
	g.Go(func() error {
		mem, err := c.Memory(gctx)
		if err != nil {
			slog.Warn("memory read failed", slog.String("error", err.Error()))
		}
		snap.Memory = mem
		return nil
	})
	g.Go(func() error {
		up, err := c.Uptime(gctx)
		if err != nil {
			slog.Warn("uptime read failed", slog.String("error", err.Error()))
		}
		snap.UptimeSeconds = up
		return nil
	})
	g.Go(func() error {
		name, err := c.Hostname(gctx)
		if err != nil {
			slog.Warn("hostname lookup failed", slog.String("error", err.Error()))
		}
		snap.Hostname = name
		return nil
	})

	_ = g.Wait()
	return &snap, nil
}

// cpuTimes holds the aggregate idle and total jiffies of one /proc/stat read.
type cpuTimes struct {
	idle  uint64
	total uint64
}

// parseCPUTimes parses the aggregate "cpu" line of /proc/stat.
// idle is idle+iowait; total is the sum of every field.
func parseCPUTimes(content string) (cpuTimes, error) {
	for line := range strings.Lines(content) {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "cpu" {
			continue
		}
		if len(fields) < 5 {
			return cpuTimes{}, errors.New(errors.ErrCodeParse,
				fmt.Sprintf("cpu line has %d fields", len(fields)))
		}

		var t cpuTimes
		for i, f := range fields[1:] {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				return cpuTimes{}, errors.Wrap(errors.ErrCodeParse, "invalid cpu counter", err)
			}
			t.total += v
			if i == 3 || i == 4 {
				t.idle += v
			}
		}
		return t, nil
	}
	return cpuTimes{}, errors.New(errors.ErrCodeParse, "no aggregate cpu line in /proc/stat")
}

// cpuUsage returns the busy percentage between two reads, clamped to
// [0,100]. Counters that do not advance yield 0.
func cpuUsage(a, b cpuTimes) float64 {
	dtotal := int64(b.total) - int64(a.total)
	if dtotal <= 0 {
		return 0
	}
	didle := int64(b.idle) - int64(a.idle)
	return units.Clamp((1 - float64(didle)/float64(dtotal)) * 100)
}

func (c *Collector) readCPUTimes(ctx context.Context) (cpuTimes, error) {
	out, err := file.Read(ctx, c.exec, procStat)
	if err != nil {
		return cpuTimes{}, err
	}
	return parseCPUTimes(out)
}

// CPUPercent samples /proc/stat twice, sampleInterval apart.
func (c *Collector) CPUPercent(ctx context.Context) (float64, error) {
	a, err := c.readCPUTimes(ctx)
	if err != nil {
		return 0, err
	}
	c.clock.Sleep(c.sampleInterval)
	b, err := c.readCPUTimes(ctx)
	if err != nil {
		return 0, err
	}
	return units.Round2(cpuUsage(a, b)), nil
}

// memoryFromKB computes the memory section from KB totals.
func memoryFromKB(totalKB, availableKB uint64) Memory {
	var usedKB uint64
	if totalKB > availableKB {
		usedKB = totalKB - availableKB
	}
	return Memory{
		TotalGB:     units.KBToGB(totalKB),
		UsedGB:      units.KBToGB(usedKB),
		UsedPercent: units.Round2(units.Percent(float64(usedKB), float64(totalKB))),
	}
}

func (c *Collector) parseMeminfo(content string) (Memory, error) {
	m, err := c.meminfo.ParseMap(content)
	if err != nil {
		return Memory{}, err
	}

	total, err := strconv.ParseUint(m["MemTotal"], 10, 64)
	if err != nil {
		return Memory{}, errors.Wrap(errors.ErrCodeParse, "invalid MemTotal", err)
	}

	availKey := "MemAvailable"
	if _, ok := m[availKey]; !ok {
		availKey = "MemFree"
	}
	avail, err := strconv.ParseUint(m[availKey], 10, 64)
	if err != nil {
		return Memory{}, errors.Wrap(errors.ErrCodeParse, "invalid "+availKey, err)
	}

	return memoryFromKB(total, avail), nil
}

// Memory reads /proc/meminfo.
func (c *Collector) Memory(ctx context.Context) (Memory, error) {
	out, err := file.Read(ctx, c.exec, procMeminfo)
	if err != nil {
		return Memory{}, err
	}
	return c.parseMeminfo(out)
}

func parseUptime(content string) (int64, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return 0, errors.New(errors.ErrCodeParse, "empty /proc/uptime")
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || v < 0 {
		return 0, errors.New(errors.ErrCodeParse, fmt.Sprintf("invalid uptime %q", fields[0]))
	}
	return int64(v), nil
}

// Uptime reads /proc/uptime truncated to whole seconds.
func (c *Collector) Uptime(ctx context.Context) (int64, error) {
	out, err := file.Read(ctx, c.exec, procUptime)
	if err != nil {
		return 0, err
	}
	return parseUptime(out)
}

// Hostname returns the target's hostname.
func (c *Collector) Hostname(ctx context.Context) (string, error) {
	out, err := c.exec.Execute(ctx, "hostname")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExecution, "failed to run hostname", err)
	}
	return strings.TrimSpace(out), nil
}
