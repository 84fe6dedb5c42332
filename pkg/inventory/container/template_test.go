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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTemplate(t *testing.T) {
	ports := ParsePorts("0.0.0.0:8081->80/tcp, 0.0.0.0:9443->9443/tcp")
	tests := []struct {
		name string
		tmpl string
		host string
		want string
	}{
		{"ip and container port", "http://[IP]:[PORT:80]/", "172.17.0.2", "http://172.17.0.2:8081/"},
		{"host port match", "https://[IP]:[PORT:9443]", "tower", "https://tower:9443"},
		{"unpublished port left as number", "http://[IP]:[PORT:3000]", "tower", "http://tower:3000"},
		{"no tokens", "http://example.com", "tower", "http://example.com"},
		{"repeated", "[IP]/[IP]", "h", "h/h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandTemplate(tt.tmpl, tt.host, ports))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		host string
		want string // empty means nil
	}{
		{"absolute http", "http://tower:8080/ui", "", "http://tower:8080/ui"},
		{"absolute https upper", "HTTPS://tower", "", "HTTPS://tower"},
		{"protocol relative", "//cdn.example.com/icon.png", "", "http://cdn.example.com/icon.png"},
		{"root relative", "/icons/plex.png", "tower.local", "http://tower.local/icons/plex.png"},
		{"root relative default host", "/x", "", "http://localhost/x"},
		{"bare host", "tower:32400/web", "", "http://tower:32400/web"},
		{"trimmed", "  http://a  ", "", "http://a"},
		{"empty", "", "", ""},
		{"other scheme", "ftp://files", "", ""},
		{"unresolved token", "http://[IP]:8080", "", ""},
		{"spaces", "http://a b", "", ""},
		{"no host", "http://", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeURL(tt.raw, tt.host)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestDeriveURL(t *testing.T) {
	tests := []struct {
		name  string
		ports string
		ip    string
		host  string
		want  string
	}{
		{"published port on fallback host", "0.0.0.0:8080->80/tcp", "172.17.0.2", "tower", "http://tower:8080"},
		{"published 443 is https", "0.0.0.0:443->443/tcp", "", "", "https://localhost:443"},
		{"container ip with exposed port", "80/tcp", "172.17.0.5", "tower", "http://172.17.0.5:80"},
		{"container ip without ports", "", "172.17.0.5", "", ""},
		{"nothing", "", "", "tower", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveURL(ParsePorts(tt.ports), tt.ip, tt.host)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}
