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

// Package units holds the unit conversions shared by collectors.
// GB is 1024^3 bytes and TB is 1024^4 bytes; sizes are rounded to two
// decimals and percentages are clamped to [0,100].
package units

import "math"

const (
	kib = 1024.0
	gib = kib * kib * kib
	tib = gib * kib
)

// Round2 rounds v to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// KBToGB converts kibibytes (as reported by /proc/meminfo) to GB.
func KBToGB(kb uint64) float64 {
	return Round2(float64(kb) / kib / kib)
}

// BytesToTB converts bytes to TB.
func BytesToTB(b uint64) float64 {
	return Round2(float64(b) / tib)
}

// Clamp bounds a percentage to [0,100]. NaN becomes 0.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Percent returns part/total*100 clamped, or 0 when total is zero.
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Clamp(part / total * 100)
}
