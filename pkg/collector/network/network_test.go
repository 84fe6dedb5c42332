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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

func TestParseDefaultRoute(t *testing.T) {
	iface, ok := parseDefaultRoute("default via 192.168.1.1 dev br0 proto dhcp metric 100\n")
	require.True(t, ok)
	assert.Equal(t, "br0", iface)

	_, ok = parseDefaultRoute("")
	assert.False(t, ok)
}

func TestParseCounters(t *testing.T) {
	rx, tx, err := parseCounters("123\n456\n")
	require.NoError(t, err)
	assert.Equal(t, uint64(123), rx)
	assert.Equal(t, uint64(456), tx)

	_, _, err = parseCounters("123\n")
	assert.True(t, errors.HasCode(err, errors.ErrCodeParse))
	_, _, err = parseCounters("a b")
	assert.True(t, errors.HasCode(err, errors.ErrCodeParse))
}

func TestCollectRates(t *testing.T) {
	cmd := countersCommand("eth0")
	fake := executor.NewFake().
		On(cmd, "1000\n2000\n").
		On(cmd, "1251000\n2000\n")
	clk := clocktesting.NewFakeClock(time.Unix(1_700_000_000, 0))

	c := NewCollector(fake, WithClock(clk), WithInterface("eth0"))

	first, err := c.Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "eth0", first.InterfaceName)
	assert.Nil(t, first.RxRateMbps)
	assert.Nil(t, first.TxRateMbps)

	clk.Step(time.Second)
	second, err := c.Collect(t.Context())
	require.NoError(t, err)
	require.NotNil(t, second.RxRateMbps)
	require.NotNil(t, second.TxRateMbps)
	assert.InDelta(t, 10.0, *second.RxRateMbps, 1e-9)
	assert.InDelta(t, 0.0, *second.TxRateMbps, 1e-9)
	assert.Equal(t, uint64(1251000), second.RxBytes)
}

func TestCollectInterfaceChangeResets(t *testing.T) {
	fake := executor.NewFake().
		On(countersCommand("eth0"), "100\n100\n").
		On(countersCommand("eth1"), "500\n500\n")
	clk := clocktesting.NewFakeClock(time.Unix(1_700_000_000, 0))
	c := NewCollector(fake, WithClock(clk), WithInterface("eth0"))

	_, err := c.Collect(t.Context())
	require.NoError(t, err)

	c.SetInterface("eth1")
	clk.Step(time.Second)
	snap, err := c.Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "eth1", snap.InterfaceName)
	assert.Nil(t, snap.RxRateMbps)

	c.SetInterface("eth0")
	clk.Step(time.Second)
	snap, err = c.Collect(t.Context())
	require.NoError(t, err)
	assert.Nil(t, snap.RxRateMbps, "switching back must not reuse the old series")
}

func TestCollectUnavailable(t *testing.T) {
	c := NewCollector(executor.NewFake(), WithInterface("nope0"))
	snap, err := c.Collect(t.Context())
	assert.Nil(t, snap)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExecution))
}

func TestCollectDetectsDefaultInterface(t *testing.T) {
	fake := executor.NewFake().
		On(defaultRouteCommand, "default via 10.0.0.1 dev bond0\n").
		On(countersCommand("bond0"), "1\n2\n")

	snap, err := NewCollector(fake).Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "bond0", snap.InterfaceName)

	_, err = NewCollector(executor.NewFake().On(defaultRouteCommand, "")).Collect(t.Context())
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
