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

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

const dfOut = `Filesystem         1-blocks          Used     Available Capacity Mounted on
shfs          4000787030016 1099511627776 2901275402240      28% /mnt/user
`

func TestParseDF(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    *ArrayUsage
		wantErr bool
	}{
		{
			name: "reported percentage",
			out:  dfOut,
			want: &ArrayUsage{TotalTB: 3.64, UsedTB: 1, UsedPercent: 28},
		},
		{
			name: "derived percentage",
			out:  "Filesystem 1-blocks Used\nshfs 2199023255552 549755813888\n",
			want: &ArrayUsage{TotalTB: 2, UsedTB: 0.5, UsedPercent: 25},
		},
		{
			name: "dash percentage falls back",
			out:  "Filesystem 1-blocks Used Available Capacity Mounted\nshfs 100 50 50 - /x\n",
			want: &ArrayUsage{TotalTB: 0, UsedTB: 0, UsedPercent: 50},
		},
		{name: "header only", out: "Filesystem 1-blocks Used\n", wantErr: true},
		{name: "garbage", out: "shfs abc def\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDF(tt.out)
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollect(t *testing.T) {
	fake := executor.NewFake().On("df -P -B1 '/mnt/user'", dfOut)
	c := NewCollector(fake, "")
	assert.Equal(t, DefaultMount, c.Mount())

	got, err := c.Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 28.0, got.UsedPercent)
}

func TestCollectDegradesToZero(t *testing.T) {
	got, err := NewCollector(executor.NewFake(), "/mnt/missing").Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, &ArrayUsage{}, got)

	fake := executor.NewFake().On("df -P -B1 '/mnt/user'", "nonsense")
	got, err = NewCollector(fake, "/mnt/user").Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, &ArrayUsage{}, got)
}

func TestCollectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewCollector(executor.NewFake(), "").Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
