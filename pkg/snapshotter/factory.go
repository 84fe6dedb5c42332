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
	"time"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/hostpulse/pkg/collector"
	"github.com/NVIDIA/hostpulse/pkg/inventory/container"
)

// FromFactory wires an Assembler to the components created by f. The
// container inventory is returned as well so the caller can run its event
// listener; it is nil when containers are disabled.
func FromFactory(f collector.Factory, timeout time.Duration, clk clock.PassiveClock) (*Assembler, *container.Inventory, error) {
	a := &Assembler{
		Timeout: timeout,
		Clock:   clk,
	}

	// Interface fields stay nil for disabled sections.
	if hc := f.CreateHostCollector(); hc != nil {
		a.Host = hc
	}
	if nc := f.CreateNetworkCollector(); nc != nil {
		a.Network = nc
	}
	if ac := f.CreateArrayCollector(); ac != nil {
		a.Array = ac
	}
	if vms := f.CreateVMInventory(); vms != nil {
		a.VMs = vms
	}

	inv, err := f.CreateContainerInventory()
	if err != nil {
		return nil, nil, err
	}
	if inv != nil {
		a.Containers = inv
	}
	return a, inv, nil
}
