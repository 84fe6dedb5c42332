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
	"fmt"
	"strings"
	"time"

	units "github.com/docker/go-units"
)

const none = "-"

// TableHeader implements serializer.Tabular.
func (s *Snapshot) TableHeader() []string {
	return []string{"SECTION", "NAME", "STATUS", "DETAIL"}
}

// TableRows implements serializer.Tabular: one row per host section,
// container and VM.
func (s *Snapshot) TableRows() [][]string {
	rows := [][]string{{
		"host",
		orNone(s.Host.Hostname),
		"up " + units.HumanDuration(time.Duration(s.Host.UptimeSeconds)*time.Second),
		fmt.Sprintf("cpu %.1f%% mem %.2f/%.2f GB (%.1f%%)",
			s.Host.CPUPercent, s.Host.Memory.UsedGB, s.Host.Memory.TotalGB, s.Host.Memory.UsedPercent),
	}}

	if n := s.Network; n != nil {
		rows = append(rows, []string{
			"network",
			n.InterfaceName,
			none,
			fmt.Sprintf("rx %s tx %s", mbps(n.RxRateMbps), mbps(n.TxRateMbps)),
		})
	}

	if a := s.ArrayUsage; a != nil {
		rows = append(rows, []string{
			"array",
			none,
			none,
			fmt.Sprintf("%.2f/%.2f TB (%.1f%%)", a.UsedTB, a.TotalTB, a.UsedPercent),
		})
	}

	for _, c := range s.Containers {
		detail := c.Image
		if c.URL != nil {
			detail += " " + *c.URL
		}
		rows = append(rows, []string{"container", c.Name, orNone(c.Status), detail})
	}

	for _, v := range s.VMs {
		rows = append(rows, []string{"vm", v.Name, orNone(v.State), none})
	}
	return rows
}

func mbps(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f Mbps", *v)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}
