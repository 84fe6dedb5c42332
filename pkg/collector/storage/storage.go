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

// Package storage reports capacity and usage of the storage array mount.
package storage

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/NVIDIA/hostpulse/pkg/collector/units"
	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

// DefaultMount is the array mount point used when none is configured.
const DefaultMount = "/mnt/user"

// ArrayUsage is the array section of a snapshot.
type ArrayUsage struct {
	TotalTB     float64 `json:"totalTB" yaml:"totalTB"`
	UsedTB      float64 `json:"usedTB" yaml:"usedTB"`
	UsedPercent float64 `json:"usedPercent" yaml:"usedPercent"`
}

// Collector queries filesystem usage of one mount.
type Collector struct {
	exec  executor.Executor
	mount string
}

// NewCollector returns a Collector for mount. An empty mount selects
// DefaultMount.
func NewCollector(exec executor.Executor, mount string) *Collector {
	if mount == "" {
		mount = DefaultMount
	}
	return &Collector{exec: exec, mount: mount}
}

// Mount returns the queried mount point.
func (c *Collector) Mount() string {
	return c.mount
}

// Collect runs df against the mount. Execution and parse failures are
// logged and produce a zero-value result; only a done ctx is an error.
func (c *Collector) Collect(ctx context.Context) (*ArrayUsage, error) {
	out, err := c.exec.Execute(ctx, "df -P -B1 "+executor.Quote(c.mount))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("array usage query failed",
			slog.String("mount", c.mount),
			slog.String("error", err.Error()))
		return &ArrayUsage{}, nil
	}

	usage, err := ParseDF(out)
	if err != nil {
		slog.Warn("array usage parse failed",
			slog.String("mount", c.mount),
			slog.String("error", err.Error()))
		return &ArrayUsage{}, nil
	}
	return usage, nil
}

// ParseDF parses POSIX df output in bytes. The reported percentage column
// is used when present; otherwise used/total is derived.
func ParseDF(out string) (*ArrayUsage, error) {
	var row []string
	for line := range strings.Lines(out) {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "Filesystem" {
			continue
		}
		row = fields
	}
	if len(row) < 3 {
		return nil, errors.New(errors.ErrCodeParse, "no filesystem row in df output")
	}

	total, err := strconv.ParseUint(row[1], 10, 64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, "invalid total size", err)
	}
	used, err := strconv.ParseUint(row[2], 10, 64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, "invalid used size", err)
	}

	pct := units.Percent(float64(used), float64(total))
	if len(row) >= 5 {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(row[4], "%"), 64); err == nil {
			pct = units.Clamp(v)
		}
	}

	return &ArrayUsage{
		TotalTB:     units.BytesToTB(total),
		UsedTB:      units.BytesToTB(used),
		UsedPercent: units.Round2(pct),
	}, nil
}
