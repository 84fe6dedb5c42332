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

// Package file parses line-oriented text produced by procfs, sysfs and
// command-line tools.
//
// A Parser splits content into entries and entries into key/value pairs.
// The same Parser serves /proc/meminfo:
//
//	p := file.NewParser(file.WithKVDelimiter(":"), file.WithVTrimSuffix("kB"))
//	m, err := p.ParseMap(content)
//	total := m["MemTotal"] // "16318540"
//
// and comma-separated container label strings:
//
//	p := file.NewParser(file.WithDelimiter(","), file.WithSkipComments(false))
//	labels, _ := p.ParseMap("a=1,b=2")
//
// Read fetches a file through an executor.Executor so the same parsing
// works for local and remote targets.
package file
