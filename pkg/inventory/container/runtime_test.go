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
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

const psOutput = `{"Command":"\"/init\"","ID":"aaa","Image":"lscr.io/linuxserver/plex:latest","Labels":"net.unraid.docker.webui=http://[IP]:[PORT:32400]/web,org.opencontainers.image.version=1.40","Names":"plex","Ports":"0.0.0.0:32400->32400/tcp","State":"running","Status":"Up 2 hours"}
{"Command":"\"docker-entrypoint.s…\"","ID":"bbb","Image":"postgres:16","Labels":"","Names":"db,legacy","Ports":"5432/tcp","State":"exited","Status":"Exited (0) 3 days ago"}
`

const inspectOutput = `[
  {"Id":"aaa","Name":"/plex","Config":{"Labels":{"com.example":"x"}},"NetworkSettings":{"IPAddress":"","Networks":{"br0":{"IPAddress":"192.168.1.50"}}}},
  {"Id":"bbb","Name":"/db","Config":{"Labels":null},"NetworkSettings":{"IPAddress":"172.17.0.3","Networks":{"bridge":{"IPAddress":"172.17.0.3"}}}}
]`

const statsOutput = `{"BlockIO":"0B / 0B","CPUPerc":"1.25%","Container":"aaa","ID":"aaa","MemPerc":"3.10%","MemUsage":"512MiB / 15.5GiB","Name":"plex","NetIO":"1.5MB / 200kB","PIDs":"40"}
{"BlockIO":"--","CPUPerc":"--","ID":"ccc","MemPerc":"--","MemUsage":"-- / --","NetIO":"-- / --"}
`

func TestCLIRuntimeList(t *testing.T) {
	fake := executor.NewFake().On(psCommand, psOutput)
	rt := NewCLIRuntime(fake)

	list, err := rt.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "plex", list[0].Name)
	assert.Equal(t, "0.0.0.0:32400->32400/tcp", list[0].Ports)
	assert.Equal(t, "db", list[1].Name)
	assert.Equal(t, "exited", list[1].State)
}

func TestCLIRuntimeListFilter(t *testing.T) {
	assert.Equal(t, psCommand+" --filter 'id=aaa'", listCommand([]string{"aaa"}))
	assert.Equal(t, psCommand, listCommand(nil))

	fake := executor.NewFake().On(listCommand([]string{"zzz"}), "")
	list, err := NewCLIRuntime(fake).List(t.Context(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCLIRuntimeListParseError(t *testing.T) {
	fake := executor.NewFake().On(psCommand, "not json\n")
	_, err := NewCLIRuntime(fake).List(t.Context())
	assert.True(t, errors.HasCode(err, errors.ErrCodeParse))
}

func TestCLIRuntimeInspect(t *testing.T) {
	fake := executor.NewFake().On("docker inspect 'aaa' 'bbb'", inspectOutput)
	ds, err := NewCLIRuntime(fake).Inspect(t.Context(), []string{"aaa", "bbb"})
	require.NoError(t, err)
	require.Len(t, ds, 2)

	assert.Equal(t, "aaa", ds[0].ID)
	assert.Equal(t, "192.168.1.50", ResolveIP(ds[0]))
	assert.Equal(t, "x", ds[0].Labels["com.example"])
	assert.Equal(t, "172.17.0.3", ResolveIP(ds[1]))

	none, err := NewCLIRuntime(fake).Inspect(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCLIRuntimeStats(t *testing.T) {
	fake := executor.NewFake().On(statsCommand, statsOutput)
	stats, err := NewCLIRuntime(fake).Stats(t.Context(), []string{"aaa"})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats["aaa"]
	assert.Equal(t, 1.25, s.CPUPercent)
	assert.Equal(t, 3.10, s.MemPercent)
	assert.Equal(t, uint64(512*1024*1024), s.MemUsedBytes)
	assert.Equal(t, uint64(15.5*1024*1024*1024), s.MemLimitBytes)
	assert.Equal(t, uint64(1_500_000), s.NetRxBytes)
	assert.Equal(t, uint64(200_000), s.NetTxBytes)
}

func TestCLIRuntimeStatsPlaceholders(t *testing.T) {
	all, err := parseStats(statsOutput)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, all["ccc"])
}

func TestCLIRuntimeEvents(t *testing.T) {
	fake := executor.NewFake()
	fake.StreamFunc = func(_ context.Context, command string, onLine func(string)) error {
		assert.Equal(t, eventsCommand, command)
		onLine(`{"status":"start","id":"aaa","Type":"container","Action":"start","Actor":{"ID":"aaa","Attributes":{"name":"plex"}}}`)
		onLine(`garbage`)
		onLine(`{"Type":"container","Action":"die","Actor":{"ID":"bbb"}}`)
		return nil
	}

	var got []Event
	err := NewCLIRuntime(fake).Events(t.Context(), func(ev Event) {
		got = append(got, ev)
	})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnavailable), "a closed stream is reported so the listener restarts")
	assert.Equal(t, []Event{
		{Type: "container", ID: "aaa", Action: "start"},
		{Type: "container", ID: "bbb", Action: "die"},
	}, got)
}

func TestEventFromLegacyMessage(t *testing.T) {
	ev := eventFromMessage(events.Message{Type: events.ContainerEventType, ID: "old", Status: "stop"})
	assert.Equal(t, Event{Type: "container", ID: "old", Action: "stop"}, ev)
}

func TestFormatPorts(t *testing.T) {
	got := formatPorts([]types.Port{
		{IP: "0.0.0.0", PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
		{PrivatePort: 53, Type: "udp"},
		{PrivatePort: 443, PublicPort: 8443},
	})
	assert.Equal(t, "0.0.0.0:8080->80/tcp, 53/udp, 8443->443/tcp", got)
	assert.Equal(t, []PortMapping{
		{HostIP: "0.0.0.0", HostPort: "8080", ContainerPort: "80", Protocol: "tcp"},
		{Display: "53/udp"},
		{HostIP: "0.0.0.0", HostPort: "8443", ContainerPort: "443", Protocol: "tcp"},
	}, ParsePorts(got))
}

func TestSummaryFromAPI(t *testing.T) {
	s := summaryFromAPI(types.Container{
		ID:     "aaa",
		Names:  []string{"/plex"},
		Image:  "plex",
		Status: "Up 1 minute",
		State:  "running",
	})
	assert.Equal(t, "/plex", s.Name)
	c := NewBuilder().Build(s, Details{})
	assert.Equal(t, "plex", c.Name)
	assert.True(t, c.Running)
}

func TestStatsFromAPI(t *testing.T) {
	var raw types.StatsJSON
	raw.CPUStats.CPUUsage.TotalUsage = 400
	raw.PreCPUStats.CPUUsage.TotalUsage = 200
	raw.CPUStats.SystemUsage = 2000
	raw.PreCPUStats.SystemUsage = 1000
	raw.CPUStats.OnlineCPUs = 4
	raw.MemoryStats.Usage = 256
	raw.MemoryStats.Limit = 1024
	raw.Networks = map[string]types.NetworkStats{
		"eth0": {RxBytes: 100, TxBytes: 10},
		"eth1": {RxBytes: 50, TxBytes: 5},
	}

	s := statsFromAPI(&raw)
	assert.InDelta(t, 80.0, s.CPUPercent, 1e-9)
	assert.InDelta(t, 25.0, s.MemPercent, 1e-9)
	assert.Equal(t, uint64(150), s.NetRxBytes)
	assert.Equal(t, uint64(15), s.NetTxBytes)

	assert.Equal(t, 0.0, cpuPercent(&types.StatsJSON{}))
}
