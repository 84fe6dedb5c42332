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

package network

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/collector/units"
	"github.com/NVIDIA/hostpulse/pkg/counter"
	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

// Snapshot is the network section of a snapshot.
type Snapshot struct {
	InterfaceName string   `json:"interfaceName" yaml:"interfaceName"`
	RxBytes       uint64   `json:"rxBytes" yaml:"rxBytes"`
	TxBytes       uint64   `json:"txBytes" yaml:"txBytes"`
	RxRateMbps    *float64 `json:"rxRateMbps" yaml:"rxRateMbps"`
	TxRateMbps    *float64 `json:"txRateMbps" yaml:"txRateMbps"`
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock sets the clock used to timestamp samples.
func WithClock(c clock.Clock) Option {
	return func(n *Collector) {
		n.clock = c
	}
}

// WithInterface pins the collector to iface.
func WithInterface(iface string) Option {
	return func(n *Collector) {
		n.configured = iface
	}
}

// Collector samples one interface's byte counters.
type Collector struct {
	exec    executor.Executor
	clock   clock.Clock
	tracker *counter.Tracker

	mu         sync.Mutex
	configured string
	current    string
}

// NewCollector returns a Collector reading through exec.
func NewCollector(exec executor.Executor, opts ...Option) *Collector {
	c := &Collector{
		exec:    exec,
		clock:   clock.RealClock{},
		tracker: counter.NewTracker(counter.BytesToMbps),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetInterface changes the monitored interface. An empty name selects the
// default route's device.
func (c *Collector) SetInterface(iface string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configured = iface
}

func statsPath(iface, name string) string {
	return fmt.Sprintf("/sys/class/net/%s/statistics/%s", iface, name)
}

func countersCommand(iface string) string {
	return "cat " + executor.Quote(statsPath(iface, "rx_bytes")) + " " +
		executor.Quote(statsPath(iface, "tx_bytes"))
}

const defaultRouteCommand = "ip -o route show default"

// parseDefaultRoute returns the device of the first default route.
func parseDefaultRoute(out string) (string, bool) {
	for line := range strings.Lines(out) {
		fields := strings.Fields(line)
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] == "dev" {
				return fields[i+1], true
			}
		}
	}
	return "", false
}

func parseCounters(out string) (rx, tx uint64, err error) {
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, errors.New(errors.ErrCodeParse,
			fmt.Sprintf("expected 2 counters, got %d", len(fields)))
	}
	if rx, err = strconv.ParseUint(fields[0], 10, 64); err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeParse, "invalid rx_bytes", err)
	}
	if tx, err = strconv.ParseUint(fields[1], 10, 64); err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeParse, "invalid tx_bytes", err)
	}
	return rx, tx, nil
}

func (c *Collector) resolveInterface(ctx context.Context) (string, error) {
	c.mu.Lock()
	iface := c.configured
	c.mu.Unlock()
	if iface != "" {
		return iface, nil
	}

	out, err := c.exec.Execute(ctx, defaultRouteCommand)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExecution, "failed to detect default interface", err)
	}
	iface, ok := parseDefaultRoute(out)
	if !ok {
		return "", errors.New(errors.ErrCodeNotFound, "no default route")
	}
	return iface, nil
}

// Collect reads the interface counters and returns their rates. It returns
// an error when the counters are unavailable.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	iface, err := c.resolveInterface(ctx)
	if err != nil {
		return nil, err
	}

	out, err := c.exec.Execute(ctx, countersCommand(iface))
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeExecution, "interface counters unavailable", err,
			map[string]any{"interface": iface})
	}
	rx, tx, err := parseCounters(out)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()

	c.mu.Lock()
	if c.current != iface {
		if c.current != "" {
			slog.Info("network interface changed",
				slog.String("from", c.current),
				slog.String("to", iface))
		}
		c.tracker.Reset()
		c.current = iface
	}
	c.mu.Unlock()

	snap := &Snapshot{
		InterfaceName: iface,
		RxBytes:       rx,
		TxBytes:       tx,
		RxRateMbps:    rounded(c.tracker.Sample(iface+"/rx", rx, now)),
		TxRateMbps:    rounded(c.tracker.Sample(iface+"/tx", tx, now)),
	}
	return snap, nil
}

func rounded(r counter.Result) *float64 {
	v, ok := r.Value()
	if !ok {
		return nil
	}
	v = units.Round2(v)
	return &v
}
