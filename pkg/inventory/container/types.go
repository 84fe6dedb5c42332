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
	"maps"
	"slices"

	"k8s.io/utils/ptr"
)

// PortMapping is one published or exposed port. Unparsable port text is
// kept in Display only.
type PortMapping struct {
	HostIP        string `json:"hostIp,omitempty" yaml:"hostIp,omitempty"`
	HostPort      string `json:"hostPort,omitempty" yaml:"hostPort,omitempty"`
	ContainerPort string `json:"containerPort,omitempty" yaml:"containerPort,omitempty"`
	Protocol      string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Display       string `json:"display,omitempty" yaml:"display,omitempty"`
}

// Metrics are runtime resource statistics of a running container.
type Metrics struct {
	CPUPercent    float64  `json:"cpuPercent" yaml:"cpuPercent"`
	MemPercent    float64  `json:"memPercent" yaml:"memPercent"`
	MemUsedBytes  uint64   `json:"memUsedBytes" yaml:"memUsedBytes"`
	MemLimitBytes uint64   `json:"memLimitBytes" yaml:"memLimitBytes"`
	NetRxBytes    uint64   `json:"netRxBytes" yaml:"netRxBytes"`
	NetTxBytes    uint64   `json:"netTxBytes" yaml:"netTxBytes"`
	NetRxMbps     *float64 `json:"netRxMbps" yaml:"netRxMbps"`
	NetTxMbps     *float64 `json:"netTxMbps" yaml:"netTxMbps"`
}

// Container is one inventory entry.
type Container struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Image       string            `json:"image" yaml:"image"`
	Version     *string           `json:"version,omitempty" yaml:"version,omitempty"`
	Status      string            `json:"status" yaml:"status"`
	State       string            `json:"state,omitempty" yaml:"state,omitempty"`
	Running     bool              `json:"running" yaml:"running"`
	Ports       []PortMapping     `json:"ports" yaml:"ports"`
	ContainerIP *string           `json:"containerIp" yaml:"containerIp"`
	URL         *string           `json:"url" yaml:"url"`
	Icon        *string           `json:"icon" yaml:"icon"`
	Labels      map[string]string `json:"labels" yaml:"labels"`
	Metrics     *Metrics          `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Clone returns a deep copy of c.
func (c Container) Clone() Container {
	out := c
	out.Version = clonePtr(c.Version)
	out.ContainerIP = clonePtr(c.ContainerIP)
	out.URL = clonePtr(c.URL)
	out.Icon = clonePtr(c.Icon)
	out.Ports = slices.Clone(c.Ports)
	if out.Ports == nil {
		out.Ports = []PortMapping{}
	}
	out.Labels = maps.Clone(c.Labels)
	if out.Labels == nil {
		out.Labels = map[string]string{}
	}
	if c.Metrics != nil {
		m := *c.Metrics
		m.NetRxMbps = clonePtr(m.NetRxMbps)
		m.NetTxMbps = clonePtr(m.NetTxMbps)
		out.Metrics = &m
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr.To(*p)
}

// Summary is one row of the container listing.
type Summary struct {
	ID     string
	Name   string
	Image  string
	Status string
	State  string
	// Ports is the runtime's port text, comma separated.
	Ports string
	// Labels is the runtime's label text, comma-separated key=value pairs.
	Labels string
}

// Details is the inspect data used to resolve addresses and labels.
type Details struct {
	ID        string
	IPAddress string
	// Networks maps network name to the container's address on it.
	Networks map[string]string
	Labels   map[string]string
}

// Stats are raw resource statistics reported by the runtime.
type Stats struct {
	CPUPercent    float64
	MemPercent    float64
	MemUsedBytes  uint64
	MemLimitBytes uint64
	NetRxBytes    uint64
	NetTxBytes    uint64
}

// Event is one record of the runtime event feed.
type Event struct {
	Type   string
	ID     string
	Action string
}

// Runtime is the container engine the inventory reads from.
type Runtime interface {
	// List returns summaries of all containers, stopped included. When ids
	// are given only those containers are listed.
	List(ctx context.Context, ids ...string) ([]Summary, error)

	// Inspect returns details for ids in one call.
	Inspect(ctx context.Context, ids []string) ([]Details, error)

	// Stats returns resource statistics of the given running containers
	// keyed by id.
	Stats(ctx context.Context, ids []string) (map[string]Stats, error)

	// Events streams the event feed to fn until the stream ends or ctx is
	// done.
	Events(ctx context.Context, fn func(Event)) error
}
