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

package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKBToGB(t *testing.T) {
	assert.Equal(t, 15.26, KBToGB(16_000_000))
	assert.Equal(t, 11.44, KBToGB(12_000_000))
	assert.Equal(t, 0.0, KBToGB(0))
}

func TestBytesToTB(t *testing.T) {
	assert.Equal(t, 1.0, BytesToTB(1<<40))
	assert.Equal(t, 3.64, BytesToTB(4_000_787_030_016))
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, total float64
		want        float64
	}{
		{"typical", 12_000_000, 16_000_000, 75},
		{"zero total", 5, 0, 0},
		{"over", 200, 100, 100},
		{"negative", -5, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percent(tt.part, tt.total), 1e-9)
		})
	}
	assert.Equal(t, 0.0, Clamp(math.NaN()))
}
