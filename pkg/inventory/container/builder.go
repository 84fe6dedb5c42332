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
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/hostpulse/pkg/collector/file"
)

// Default label keys holding the web UI and icon templates.
const (
	DefaultWebUILabel = "net.unraid.docker.webui"
	DefaultIconLabel  = "net.unraid.docker.icon"
)

// Builder constructs Containers from runtime data.
type Builder struct {
	webUILabel   string
	iconLabel    string
	fallbackHost string
	labels       *file.Parser
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithWebUILabel sets the label key of the web UI template.
func WithWebUILabel(key string) BuilderOption {
	return func(b *Builder) {
		if key != "" {
			b.webUILabel = key
		}
	}
}

// WithIconLabel sets the label key of the icon template.
func WithIconLabel(key string) BuilderOption {
	return func(b *Builder) {
		if key != "" {
			b.iconLabel = key
		}
	}
}

// WithFallbackHost sets the host used when a container has no IP and for
// root-relative and published-port URLs.
func WithFallbackHost(host string) BuilderOption {
	return func(b *Builder) {
		b.fallbackHost = host
	}
}

// NewBuilder returns a Builder with the default label keys.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		webUILabel: DefaultWebUILabel,
		iconLabel:  DefaultIconLabel,
		labels:     file.NewParser(file.WithDelimiter(","), file.WithSkipComments(false)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsRunning reports whether status text describes a running container.
func IsRunning(status string) bool {
	s := strings.TrimSpace(status)
	return len(s) >= 2 && strings.EqualFold(s[:2], "up")
}

// Build constructs a Container from its listing row and inspect data.
// details may be the zero value when inspect data is unavailable.
func (b *Builder) Build(s Summary, d Details) Container {
	c := Container{
		ID:      s.ID,
		Name:    strings.TrimPrefix(s.Name, "/"),
		Image:   FamiliarImage(s.Image),
		Status:  s.Status,
		State:   s.State,
		Running: IsRunning(s.Status),
		Ports:   ParsePorts(s.Ports),
		Labels:  b.parseLabels(s.Labels),
	}
	maps.Copy(c.Labels, d.Labels)

	if v := c.Labels[ocispec.AnnotationVersion]; v != "" {
		c.Version = ptr.To(v)
	}

	ip := ResolveIP(d)
	if ip != "" {
		c.ContainerIP = ptr.To(ip)
	}

	host := ip
	if host == "" {
		host = b.fallbackHost
	}
	if host == "" {
		host = fallbackHost
	}

	if tmpl := c.Labels[b.webUILabel]; strings.TrimSpace(tmpl) != "" {
		c.URL = NormalizeURL(ExpandTemplate(tmpl, host, c.Ports), b.fallbackHost)
	} else {
		c.URL = deriveURL(c.Ports, ip, b.fallbackHost)
	}
	if tmpl := c.Labels[b.iconLabel]; strings.TrimSpace(tmpl) != "" {
		c.Icon = NormalizeURL(ExpandTemplate(tmpl, host, c.Ports), b.fallbackHost)
	}
	return c
}

func (b *Builder) parseLabels(text string) map[string]string {
	labels, err := b.labels.ParseMap(text)
	if err != nil {
		slog.Debug("failed to parse container labels", slog.String("error", err.Error()))
		return map[string]string{}
	}
	return labels
}

// ResolveIP returns the container's address: the direct field first, else
// the first network, by name, with a non-empty address.
func ResolveIP(d Details) string {
	if d.IPAddress != "" {
		return d.IPAddress
	}
	for _, name := range slices.Sorted(maps.Keys(d.Networks)) {
		if ip := d.Networks[name]; ip != "" {
			return ip
		}
	}
	return ""
}

// FamiliarImage shortens a fully qualified image reference to its familiar
// form, e.g. "docker.io/library/nginx:latest" to "nginx:latest". Strings
// that are not valid references are returned unchanged.
func FamiliarImage(image string) string {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return image
	}
	return reference.FamiliarString(named)
}
