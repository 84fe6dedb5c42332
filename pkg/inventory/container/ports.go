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
	"regexp"
	"strings"
)

const (
	defaultHostIP   = "0.0.0.0"
	defaultProtocol = "tcp"
)

var portPattern = regexp.MustCompile(`^(?:(.+):)?(\d+)->(\d+)(?:/(\w+))?$`)

// ParsePorts parses the runtime's comma-separated port text. Each segment of
// the form [hostIp:]hostPort->containerPort[/protocol] becomes a structured
// mapping; other segments are kept verbatim in Display.
func ParsePorts(text string) []PortMapping {
	ports := []PortMapping{}
	for seg := range strings.SplitSeq(text, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		ports = append(ports, parsePort(seg))
	}
	return ports
}

func parsePort(seg string) PortMapping {
	m := portPattern.FindStringSubmatch(seg)
	if m == nil {
		return PortMapping{Display: seg}
	}
	p := PortMapping{
		HostIP:        m[1],
		HostPort:      m[2],
		ContainerPort: m[3],
		Protocol:      m[4],
	}
	if p.HostIP == "" {
		p.HostIP = defaultHostIP
	}
	if p.Protocol == "" {
		p.Protocol = defaultProtocol
	}
	return p
}

// publishedPort returns the host port mapped to n, matching either side.
func publishedPort(ports []PortMapping, n string) (string, bool) {
	for _, p := range ports {
		if p.HostPort == "" {
			continue
		}
		if p.ContainerPort == n || p.HostPort == n {
			return p.HostPort, true
		}
	}
	return "", false
}

// firstHostPort returns the first published host port.
func firstHostPort(ports []PortMapping) (string, bool) {
	for _, p := range ports {
		if p.HostPort != "" {
			return p.HostPort, true
		}
	}
	return "", false
}

// firstContainerPort returns the first container-side port, including
// exposed-only ports that were kept for display such as "80/tcp".
func firstContainerPort(ports []PortMapping) (string, bool) {
	for _, p := range ports {
		if p.ContainerPort != "" {
			return p.ContainerPort, true
		}
		if n := leadingDigits(p.Display); n != "" {
			return n, true
		}
	}
	return "", false
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 || (end < len(s) && s[end] != '/') {
		return ""
	}
	return s[:end]
}
