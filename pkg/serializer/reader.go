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

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FormatFromPath determines the serialization format from a file extension:
// .json, .yaml/.yml and .table/.txt. Unknown extensions map to JSON.
// Matching is case-insensitive.
func FormatFromPath(filePath string) Format {
	lowerPath := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lowerPath, ".json"):
		return FormatJSON
	case strings.HasSuffix(lowerPath, ".yaml"), strings.HasSuffix(lowerPath, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lowerPath, ".table"), strings.HasSuffix(lowerPath, ".txt"):
		return FormatTable
	default:
		slog.Warn("unknown file extension, defaulting to JSON", "filePath", filePath)
		return FormatJSON
	}
}

// Reader deserializes JSON or YAML from an io.Reader.
//
// Close must be called for readers created by NewFileReader or
// NewFileReaderAuto. It is idempotent and a no-op for non-closeable inputs.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
	strict bool
}

func checkReadable(format Format) error {
	if format.IsUnknown() {
		return errors.New(errors.ErrCodeInvalidRequest, "unknown format: "+string(format))
	}
	if format == FormatTable {
		return errors.New(errors.ErrCodeInvalidRequest, "table format does not support deserialization")
	}
	return nil
}

// NewReader creates a Reader over input. If input implements io.Closer it is
// closed by Reader.Close.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if err := checkReadable(format); err != nil {
		return nil, err
	}

	r := &Reader{
		format: format,
		input:  input,
	}
	if closer, ok := input.(io.Closer); ok {
		r.closer = closer
	}
	return r, nil
}

// NewFileReader opens filePath for deserialization in the given format.
func NewFileReader(format Format, filePath string) (*Reader, error) {
	if err := checkReadable(format); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		code := errors.ErrCodeInternal
		if stderrors.Is(err, fs.ErrNotExist) {
			code = errors.ErrCodeNotFound
		}
		return nil, errors.WrapWithContext(code, "failed to open file", err, map[string]any{
			"path": filePath,
		})
	}

	return &Reader{
		format: format,
		input:  file,
		closer: file,
	}, nil
}

// NewFileReaderAuto is NewFileReader with the format taken from the extension.
func NewFileReaderAuto(filePath string) (*Reader, error) {
	return NewFileReader(FormatFromPath(filePath), filePath)
}

// Strict makes Deserialize reject fields unknown to the target type.
func (r *Reader) Strict() *Reader {
	r.strict = true
	return r
}

// Deserialize decodes the input into v, which must be a pointer.
// An empty input leaves v untouched.
func (r *Reader) Deserialize(v any) error {
	if r == nil || r.input == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "reader has no input")
	}

	var err error
	switch r.format {
	case FormatJSON:
		decoder := json.NewDecoder(r.input)
		if r.strict {
			decoder.DisallowUnknownFields()
		}
		err = decoder.Decode(v)
	case FormatYAML:
		decoder := yaml.NewDecoder(r.input)
		decoder.KnownFields(r.strict)
		err = decoder.Decode(v)
	default:
		return errors.New(errors.ErrCodeInvalidRequest, "unsupported format for deserialization: "+string(r.format))
	}

	if err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(errors.ErrCodeParse, "failed to decode "+string(r.format), err)
	}
	return nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// FromFile loads and decodes the JSON or YAML file at path into a new T.
// The format is detected from the extension.
func FromFile[T any](path string) (*T, error) {
	return fromFile[T](path, false)
}

// FromFileStrict is FromFile rejecting unknown fields.
func FromFileStrict[T any](path string) (*T, error) {
	return fromFile[T](path, true)
}

func fromFile[T any](path string, strict bool) (*T, error) {
	reader, err := NewFileReaderAuto(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			slog.Warn("failed to close reader", "error", closeErr)
		}
	}()

	if strict {
		reader.Strict()
	}

	var out T
	if err := reader.Deserialize(&out); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeParse, "failed to load file", err, map[string]any{
			"path": path,
		})
	}

	slog.Debug("loaded object from file", slog.String("path", path))
	return &out, nil
}
