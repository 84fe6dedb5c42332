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
)

func TestParsePorts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []PortMapping
	}{
		{
			name: "full mapping",
			text: "0.0.0.0:8080->80/tcp",
			want: []PortMapping{{HostIP: "0.0.0.0", HostPort: "8080", ContainerPort: "80", Protocol: "tcp"}},
		},
		{
			name: "exposed only",
			text: "80/tcp",
			want: []PortMapping{{Display: "80/tcp"}},
		},
		{
			name: "defaults",
			text: "8443->443",
			want: []PortMapping{{HostIP: "0.0.0.0", HostPort: "8443", ContainerPort: "443", Protocol: "tcp"}},
		},
		{
			name: "ipv6 and udp",
			text: ":::53->53/udp",
			want: []PortMapping{{HostIP: "::", HostPort: "53", ContainerPort: "53", Protocol: "udp"}},
		},
		{
			name: "mixed list keeps order",
			text: "0.0.0.0:8080->80/tcp, 9000/tcp, garbage",
			want: []PortMapping{
				{HostIP: "0.0.0.0", HostPort: "8080", ContainerPort: "80", Protocol: "tcp"},
				{Display: "9000/tcp"},
				{Display: "garbage"},
			},
		},
		{name: "empty", text: "", want: []PortMapping{}},
		{name: "blank segments", text: " , ", want: []PortMapping{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePorts(tt.text))
		})
	}
}

func TestFirstContainerPort(t *testing.T) {
	p, ok := firstContainerPort(ParsePorts("9000/tcp"))
	assert.True(t, ok)
	assert.Equal(t, "9000", p)

	_, ok = firstContainerPort(ParsePorts("garbage"))
	assert.False(t, ok)

	_, ok = firstContainerPort(nil)
	assert.False(t, ok)
}
