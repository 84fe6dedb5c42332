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

// Package serializer encodes and decodes hostpulse data in JSON, YAML and
// table form.
//
// # Formats
//
// JSON is the wire format used by the HTTP transport and the default for
// the CLI. YAML is used for configuration files and human-readable dumps.
// Table is write-only: values implementing Tabular render their own rows,
// everything else is flattened into dotted FIELD/VALUE pairs keyed by the
// JSON field names.
//
// # Usage
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	defer func() {
//		if c, ok := w.(serializer.Closer); ok {
//			_ = c.Close()
//		}
//	}()
//	if err := w.Serialize(ctx, snap); err != nil {
//		return err
//	}
//
// Reading a typed file:
//
//	cfg, err := serializer.FromFile[config.Config]("/etc/hostpulse/config.yaml")
//
// HTTP handlers respond with RespondJSON, which buffers the encoding so a
// failure never leaves a partial body on the wire.
package serializer
