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
	"net"
	"net/netip"
	"net/url"
	"regexp"
	"strings"

	"k8s.io/utils/ptr"
)

const (
	ipToken      = "[IP]"
	fallbackHost = "localhost"
)

var portToken = regexp.MustCompile(`\[PORT:(\d+)\]`)

// ExpandTemplate substitutes [IP] and [PORT:n] in a label template.
// host is used for [IP]; ports resolve [PORT:n] to the published host port
// mapped to n, leaving n itself when nothing is published.
func ExpandTemplate(tmpl, host string, ports []PortMapping) string {
	out := strings.ReplaceAll(tmpl, ipToken, host)
	return portToken.ReplaceAllStringFunc(out, func(tok string) string {
		n := portToken.FindStringSubmatch(tok)[1]
		if hp, ok := publishedPort(ports, n); ok {
			return hp
		}
		return n
	})
}

// NormalizeURL turns raw into an absolute http(s) URL. Protocol-relative
// and bare host forms get an http scheme; root-relative paths are joined to
// host. It returns nil when the result is not a valid http(s) URL.
func NormalizeURL(raw, host string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if host == "" {
		host = fallbackHost
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
	case strings.HasPrefix(s, "//"):
		s = "http:" + s
	case strings.HasPrefix(s, "/"):
		s = "http://" + host + s
	case strings.Contains(s, "://"):
		return nil
	default:
		s = "http://" + s
	}

	if !validHTTPURL(s) {
		return nil
	}
	return ptr.To(s)
}

func validHTTPURL(s string) bool {
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if strings.HasPrefix(u.Host, "[") {
		if _, err := netip.ParseAddr(host); err != nil {
			return false
		}
	}
	return true
}

func schemeFor(port string) string {
	if port == "443" {
		return "https"
	}
	return "http"
}

// deriveURL builds a URL for containers without a web UI label: the first
// published port on the fallback host, else the container IP with its first
// container port. A container with neither gets no URL.
func deriveURL(ports []PortMapping, containerIP, host string) *string {
	if host == "" {
		host = fallbackHost
	}
	if hp, ok := firstHostPort(ports); ok {
		return NormalizeURL(schemeFor(hp)+"://"+net.JoinHostPort(host, hp), host)
	}
	if containerIP == "" {
		return nil
	}
	if cp, ok := firstContainerPort(ports); ok {
		return NormalizeURL(schemeFor(cp)+"://"+net.JoinHostPort(containerIP, cp), host)
	}
	return nil
}
