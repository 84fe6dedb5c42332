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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

// maxContentSize caps the content a Parser accepts.
const maxContentSize = 1 << 20

// Options for configuring the Parser.
type Option func(*Parser)

// Parser parses text content with customizable settings.
type Parser struct {
	delimiter    string
	skipComments bool
	kvDelimiter  string
	vTrimSuffix  string
}

// WithDelimiter sets the delimiter used to split entries.
// Default is newline ("\n").
func WithDelimiter(delim string) Option {
	return func(p *Parser) {
		p.delimiter = delim
	}
}

// WithSkipComments sets whether to skip entries starting with "#".
// Default is true.
func WithSkipComments(skip bool) Option {
	return func(p *Parser) {
		p.skipComments = skip
	}
}

// WithKVDelimiter sets the key-value delimiter used in ParseMap.
// Default is "=".
func WithKVDelimiter(kvDelim string) Option {
	return func(p *Parser) {
		p.kvDelimiter = kvDelim
	}
}

// WithVTrimSuffix sets a unit suffix stripped from values, e.g. "kB".
func WithVTrimSuffix(suffix string) Option {
	return func(p *Parser) {
		p.vTrimSuffix = suffix
	}
}

// NewParser creates a new parser with the provided options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		delimiter:    "\n",
		skipComments: true,
		kvDelimiter:  "=",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// entries splits content into trimmed, non-empty entries.
func (p *Parser) entries(content string) ([]string, error) {
	if p.delimiter == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "delimiter cannot be empty")
	}
	if len(content) > maxContentSize {
		return nil, errors.New(errors.ErrCodeParse,
			fmt.Sprintf("content size %d exceeds limit %d", len(content), maxContentSize))
	}
	if !utf8.ValidString(content) {
		return nil, errors.New(errors.ErrCodeParse, "content is not valid UTF-8")
	}

	parts := strings.Split(content, p.delimiter)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		if p.skipComments && strings.HasPrefix(clean, "#") {
			continue
		}
		result = append(result, clean)
	}
	return result, nil
}

// ParseMap splits content into key/value pairs. Later keys overwrite
// earlier ones. An entry without the delimiter maps to an empty value.
func (p *Parser) ParseMap(content string) (map[string]string, error) {
	parts, err := p.entries(content)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(parts))
	for _, part := range parts {
		key, value, found := strings.Cut(part, p.kvDelimiter)
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !found {
			slog.Debug("entry without value",
				slog.String("entry", part),
				slog.String("delimiter", p.kvDelimiter))
		}

		value = strings.TrimSpace(value)
		if p.vTrimSuffix != "" {
			value = strings.TrimSpace(strings.TrimSuffix(value, p.vTrimSuffix))
		}
		result[key] = value
	}
	return result, nil
}

// Read returns the content of path on the executor's target.
func Read(ctx context.Context, exec executor.Executor, path string) (string, error) {
	out, err := exec.Execute(ctx, "cat "+executor.Quote(path))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExecution, fmt.Sprintf("failed to read %s", path), err)
	}
	return out, nil
}
