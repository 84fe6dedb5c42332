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

package serializer

import "context"

// Serializer writes a value in a configured output format.
//
// The context is honored by implementations that block on I/O such as
// network-backed writers.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is implemented by Serializers holding resources like file handles.
type Closer interface {
	Close() error
}

// Tabular is implemented by values that render their own table.
// Values that don't implement it are flattened into FIELD/VALUE rows.
type Tabular interface {
	TableHeader() []string
	TableRows() [][]string
}
