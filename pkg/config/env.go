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

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/NVIDIA/hostpulse/pkg/errors"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvConfigFile         = "HOSTPULSE_CONFIG"
	EnvTargetMode         = "HOSTPULSE_TARGET_MODE"
	EnvSSHHost            = "HOSTPULSE_SSH_HOST"
	EnvSSHPort            = "HOSTPULSE_SSH_PORT"
	EnvSSHUser            = "HOSTPULSE_SSH_USER"
	EnvSSHPassword        = "HOSTPULSE_SSH_PASSWORD"
	EnvSSHIdentityFile    = "HOSTPULSE_SSH_IDENTITY_FILE"
	EnvSSHKnownHosts      = "HOSTPULSE_SSH_KNOWN_HOSTS"
	EnvNetworkInterface   = "HOSTPULSE_NETWORK_INTERFACE"
	EnvArrayMount         = "HOSTPULSE_ARRAY_MOUNT"
	EnvContainerRuntime   = "HOSTPULSE_CONTAINER_RUNTIME"
	EnvContainerStats     = "HOSTPULSE_CONTAINER_STATS"
	EnvDockerHost         = "HOSTPULSE_DOCKER_HOST"
	EnvFallbackHost       = "HOSTPULSE_FALLBACK_HOST"
	EnvCollectorTimeout   = "HOSTPULSE_COLLECTOR_TIMEOUT"
	EnvMinRefreshInterval = "HOSTPULSE_MIN_REFRESH_INTERVAL"
	EnvPushInterval       = "HOSTPULSE_PUSH_INTERVAL"
	EnvServerAddress      = "HOSTPULSE_ADDRESS"
	EnvServerPort         = "PORT"
)

// LookupEnv reads the process environment.
var LookupEnv = os.LookupEnv

// ApplyEnv overrides fields from variables returned by lookup. Values that
// fail to parse are reported as INVALID_CONFIG.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvTargetMode, &c.Target.Mode},
		{EnvSSHHost, &c.Target.SSH.Host},
		{EnvSSHUser, &c.Target.SSH.User},
		{EnvSSHPassword, &c.Target.SSH.Password},
		{EnvSSHIdentityFile, &c.Target.SSH.IdentityFile},
		{EnvSSHKnownHosts, &c.Target.SSH.KnownHostsFile},
		{EnvNetworkInterface, &c.Network.Interface},
		{EnvArrayMount, &c.Array.Mount},
		{EnvContainerRuntime, &c.Containers.Runtime},
		{EnvDockerHost, &c.Containers.DockerHost},
		{EnvFallbackHost, &c.Containers.FallbackHost},
		{EnvServerAddress, &c.Server.Address},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvSSHPort, &c.Target.SSH.Port},
		{EnvServerPort, &c.Server.Port},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(i.key, v, err)
		}
		*i.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvCollectorTimeout, &c.Collector.Timeout},
		{EnvMinRefreshInterval, &c.Transport.MinRefreshInterval},
		{EnvPushInterval, &c.Transport.PushInterval},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return envError(d.key, v, err)
		}
		*d.dst = parsed
	}

	if v, ok := lookup(EnvContainerStats); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(EnvContainerStats, v, err)
		}
		c.Containers.Stats = b
	}
	return nil
}

func envError(key, value string, err error) error {
	return errors.WrapWithContext(errors.ErrCodeInvalidConfig, "invalid environment value", err,
		map[string]any{"key": key, "value": value})
}
