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
	"slices"
	"time"

	"github.com/NVIDIA/hostpulse/pkg/collector/host"
	"github.com/NVIDIA/hostpulse/pkg/collector/network"
	"github.com/NVIDIA/hostpulse/pkg/collector/storage"
	"github.com/NVIDIA/hostpulse/pkg/inventory/container"
	"github.com/NVIDIA/hostpulse/pkg/inventory/vm"
)

// Source produces snapshots. force bypasses any caching.
type Source interface {
	GetSnapshot(ctx context.Context, force bool) (*Snapshot, error)
}

// HostCollector gathers the host section.
type HostCollector interface {
	Collect(ctx context.Context) (*host.Snapshot, error)
}

// NetworkCollector gathers the network section.
type NetworkCollector interface {
	Collect(ctx context.Context) (*network.Snapshot, error)
}

// ArrayCollector gathers the array usage section.
type ArrayCollector interface {
	Collect(ctx context.Context) (*storage.ArrayUsage, error)
}

// ContainerSource provides the container list.
type ContainerSource interface {
	Get(ctx context.Context) ([]container.Container, error)
}

// VMSource provides the VM list. It never fails.
type VMSource interface {
	Get(ctx context.Context) []vm.VirtualMachine
}

// Snapshot is one assembled set of host and workload metrics. Every field is
// always serialized; network and arrayUsage are null when unavailable.
type Snapshot struct {
	CapturedAt time.Time             `json:"capturedAt" yaml:"capturedAt"`
	Host       host.Snapshot         `json:"host" yaml:"host"`
	Network    *network.Snapshot     `json:"network" yaml:"network"`
	ArrayUsage *storage.ArrayUsage   `json:"arrayUsage" yaml:"arrayUsage"`
	Containers []container.Container `json:"containers" yaml:"containers"`
	VMs        []vm.VirtualMachine   `json:"vms" yaml:"vms"`
}

// NewSnapshot returns a Snapshot with empty, non-nil lists.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Containers: []container.Container{},
		VMs:        []vm.VirtualMachine{},
	}
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Network != nil {
		n := *s.Network
		n.RxRateMbps = cloneFloat(n.RxRateMbps)
		n.TxRateMbps = cloneFloat(n.TxRateMbps)
		out.Network = &n
	}
	if s.ArrayUsage != nil {
		a := *s.ArrayUsage
		out.ArrayUsage = &a
	}
	out.Containers = make([]container.Container, len(s.Containers))
	for i, c := range s.Containers {
		out.Containers[i] = c.Clone()
	}
	out.VMs = slices.Clone(s.VMs)
	if out.VMs == nil {
		out.VMs = []vm.VirtualMachine{}
	}
	return &out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
