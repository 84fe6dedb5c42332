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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/hostpulse/pkg/collector/host"
	"github.com/NVIDIA/hostpulse/pkg/collector/network"
	"github.com/NVIDIA/hostpulse/pkg/inventory/container"
	"github.com/NVIDIA/hostpulse/pkg/inventory/vm"
)

func TestSnapshotTableRows(t *testing.T) {
	s := NewSnapshot()
	s.Host = host.Snapshot{
		UptimeSeconds: 7200,
		CPUPercent:    12.5,
		Memory:        host.Memory{TotalGB: 16, UsedGB: 4, UsedPercent: 25},
		Hostname:      "tower",
	}
	s.Network = &network.Snapshot{InterfaceName: "eth0", RxRateMbps: ptr.To(1.5)}
	s.Containers = []container.Container{{Name: "plex", Image: "plexinc/pms-docker", Status: "Up 2 hours", URL: ptr.To("http://10.0.0.2:32400")}}
	s.VMs = []vm.VirtualMachine{{Name: "win11", State: "shut off"}}

	assert.Len(t, s.TableHeader(), 4)
	rows := s.TableRows()
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"host", "tower", "up 2 hours", "cpu 12.5% mem 4.00/16.00 GB (25.0%)"}, rows[0])
	assert.Equal(t, "rx 1.50 Mbps tx n/a", rows[1][3])
	assert.Equal(t, "plexinc/pms-docker http://10.0.0.2:32400", rows[2][3])
	assert.Equal(t, []string{"vm", "win11", "shut off", "-"}, rows[3])
}
