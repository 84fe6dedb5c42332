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

package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hostpulse/pkg/collector"
	"github.com/NVIDIA/hostpulse/pkg/config"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestRun(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Containers.Enabled = false
	cfg.VMs.Enabled = false
	cfg.Array.Enabled = false

	fake := executor.NewFake().On("hostname", "tower\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, "hostpulsed", "test", collector.WithExecutor(fake))
	}()

	base := "http://" + net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.Server.Port))
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/ready")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/v1/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "capturedAt")
	assert.Contains(t, body, "host")
	assert.Contains(t, body, "arrayUsage")
	assert.Nil(t, body["arrayUsage"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunInvalidTarget(t *testing.T) {
	cfg := config.Default()
	cfg.Target.Mode = "telnet"

	err := Run(context.Background(), cfg, "hostpulsed", "test")
	require.Error(t, err)
}
