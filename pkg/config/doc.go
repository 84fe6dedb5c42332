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

// Package config loads hostpulse runtime configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then HOSTPULSE_* environment variables. Command-line flags are applied on
// top by the CLI. The result is checked by Validate, which reports problems
// as INVALID_CONFIG structured errors.
//
// Example file:
//
//	target:
//	  mode: ssh
//	  ssh:
//	    host: tower.local
//	    user: root
//	    identityFile: /root/.ssh/id_ed25519
//	network:
//	  interface: eth0
//	array:
//	  mount: /mnt/user
//	containers:
//	  runtime: cli
//	  stats: true
//	vms:
//	  staleAfter: 60s
//	transport:
//	  minRefreshInterval: 5s
//	  pushInterval: 1s
//	server:
//	  port: 8080
//
// Durations use Go duration syntax.
package config
