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

package file

import (
	"strings"
	"testing"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const meminfo = `MemTotal:       16318540 kB
MemFree:         1183712 kB
MemAvailable:    9842044 kB
Buffers:          583120 kB
HugePages_Total:       0
`

func TestParseMapMeminfo(t *testing.T) {
	p := NewParser(WithKVDelimiter(":"), WithVTrimSuffix("kB"))
	m, err := p.ParseMap(meminfo)
	require.NoError(t, err)

	assert.Equal(t, "16318540", m["MemTotal"])
	assert.Equal(t, "9842044", m["MemAvailable"])
	assert.Equal(t, "0", m["HugePages_Total"])
	assert.Len(t, m, 5)
}

func TestParseMapLabels(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "a=1", map[string]string{"a": "1"}},
		{"multiple", "a=1,b=2", map[string]string{"a": "1", "b": "2"}},
		{"value with equals", "url=http://x/?q=1", map[string]string{"url": "http://x/?q=1"}},
		{"key only", "flag", map[string]string{"flag": ""}},
		{"comment-like key kept", "#a=1", map[string]string{"#a": "1"}},
		{"blank key dropped", "=v,b=2", map[string]string{"b": "2"}},
	}
	p := NewParser(WithDelimiter(","), WithSkipComments(false))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseMap(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMapRejectsBadContent(t *testing.T) {
	p := NewParser()
	m, err := p.ParseMap("# header\n\n  one=1  \ntwo\n")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"one": "1", "two": ""}, m)

	_, err = NewParser(WithDelimiter("")).ParseMap("x")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	_, err = p.ParseMap(strings.Repeat("a", maxContentSize+1))
	assert.True(t, errors.HasCode(err, errors.ErrCodeParse))

	_, err = p.ParseMap(string([]byte{0xff, 0xfe}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeParse))
}

func TestRead(t *testing.T) {
	fake := executor.NewFake()
	fake.On("cat '/proc/meminfo'", meminfo)

	out, err := Read(t.Context(), fake, "/proc/meminfo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "MemTotal"))

	_, err = Read(t.Context(), fake, "/missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExecution))
}
