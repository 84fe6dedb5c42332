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
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/go-units"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/executor"
)

const (
	psCommand     = "docker ps -a --no-trunc --format '{{json .}}'"
	statsCommand  = "docker stats --no-stream --no-trunc --format '{{json .}}'"
	eventsCommand = "docker events --filter type=container --format '{{json .}}'"
)

// CLIRuntime drives the docker CLI through an executor.
type CLIRuntime struct {
	exec executor.Executor
}

// NewCLIRuntime returns a CLIRuntime running commands with exec.
func NewCLIRuntime(exec executor.Executor) *CLIRuntime {
	return &CLIRuntime{exec: exec}
}

// psRow is one line of `docker ps --format '{{json .}}'`.
type psRow struct {
	ID     string `json:"ID"`
	Names  string `json:"Names"`
	Image  string `json:"Image"`
	Status string `json:"Status"`
	State  string `json:"State"`
	Ports  string `json:"Ports"`
	Labels string `json:"Labels"`
}

// statsRow is one line of `docker stats --format '{{json .}}'`.
type statsRow struct {
	ID       string `json:"ID"`
	CPUPerc  string `json:"CPUPerc"`
	MemPerc  string `json:"MemPerc"`
	MemUsage string `json:"MemUsage"`
	NetIO    string `json:"NetIO"`
}

func listCommand(ids []string) string {
	var b strings.Builder
	b.WriteString(psCommand)
	for _, id := range ids {
		b.WriteString(" --filter ")
		b.WriteString(executor.Quote("id=" + id))
	}
	return b.String()
}

// List implements Runtime.
func (r *CLIRuntime) List(ctx context.Context, ids ...string) ([]Summary, error) {
	out, err := r.exec.Execute(ctx, listCommand(ids))
	if err != nil {
		return nil, err
	}
	return parsePS(out)
}

func parsePS(out string) ([]Summary, error) {
	var list []Summary
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var row psRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, "invalid docker ps output", err)
		}
		// Only the first name is meaningful for display.
		name, _, _ := strings.Cut(row.Names, ",")
		list = append(list, Summary{
			ID:     row.ID,
			Name:   name,
			Image:  row.Image,
			Status: row.Status,
			State:  row.State,
			Ports:  row.Ports,
			Labels: row.Labels,
		})
	}
	return list, nil
}

// Inspect implements Runtime.
func (r *CLIRuntime) Inspect(ctx context.Context, ids []string) ([]Details, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = executor.Quote(id)
	}
	out, err := r.exec.Execute(ctx, "docker inspect "+strings.Join(quoted, " "))
	if err != nil {
		return nil, err
	}
	return parseInspect(out)
}

func parseInspect(out string) ([]Details, error) {
	var raw []types.ContainerJSON
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, "invalid docker inspect output", err)
	}
	details := make([]Details, 0, len(raw))
	for _, c := range raw {
		details = append(details, detailsFromInspect(c))
	}
	return details, nil
}

// detailsFromInspect extracts the fields the builder needs from inspect data.
func detailsFromInspect(c types.ContainerJSON) Details {
	d := Details{Networks: map[string]string{}, Labels: map[string]string{}}
	if c.ContainerJSONBase != nil {
		d.ID = c.ID
	}
	if c.Config != nil {
		for k, v := range c.Config.Labels {
			d.Labels[k] = v
		}
	}
	if ns := c.NetworkSettings; ns != nil {
		d.IPAddress = ns.IPAddress
		for name, ep := range ns.Networks {
			if ep != nil {
				d.Networks[name] = ep.IPAddress
			}
		}
	}
	return d
}

// Stats implements Runtime. The CLI reports all running containers; ids
// only narrows the result.
func (r *CLIRuntime) Stats(ctx context.Context, ids []string) (map[string]Stats, error) {
	out, err := r.exec.Execute(ctx, statsCommand)
	if err != nil {
		return nil, err
	}
	all, err := parseStats(out)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return all, nil
	}
	res := make(map[string]Stats, len(ids))
	for _, id := range ids {
		if s, ok := all[id]; ok {
			res[id] = s
		}
	}
	return res, nil
}

func parseStats(out string) (map[string]Stats, error) {
	res := map[string]Stats{}
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var row statsRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, "invalid docker stats output", err)
		}
		memUsed, memLimit := splitSizes(row.MemUsage, units.RAMInBytes)
		rx, tx := splitSizes(row.NetIO, units.FromHumanSize)
		res[row.ID] = Stats{
			CPUPercent:    parsePercent(row.CPUPerc),
			MemPercent:    parsePercent(row.MemPerc),
			MemUsedBytes:  memUsed,
			MemLimitBytes: memLimit,
			NetRxBytes:    rx,
			NetTxBytes:    tx,
		}
	}
	return res, nil
}

func parsePercent(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0
	}
	return v
}

// splitSizes parses "a / b" size pairs as printed by docker stats.
func splitSizes(s string, parse func(string) (int64, error)) (uint64, uint64) {
	left, right, _ := strings.Cut(s, "/")
	return parseSize(left, parse), parseSize(right, parse)
}

func parseSize(s string, parse func(string) (int64, error)) uint64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return 0
	}
	v, err := parse(s)
	if err != nil || v < 0 {
		return 0
	}
	return uint64(v)
}

// Events implements Runtime by streaming `docker events`.
func (r *CLIRuntime) Events(ctx context.Context, fn func(Event)) error {
	err := r.exec.Stream(ctx, eventsCommand, func(line string) {
		ev, err := parseEvent(line)
		if err != nil {
			slog.Debug("skipping unparsable event", slog.String("line", line))
			return
		}
		fn(ev)
	})
	if err != nil {
		return err
	}
	return errors.New(errors.ErrCodeUnavailable, "docker events stream closed")
}

func parseEvent(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, errors.New(errors.ErrCodeParse, "empty event line")
	}
	var msg events.Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return Event{}, err
	}
	return eventFromMessage(msg), nil
}

func eventFromMessage(msg events.Message) Event {
	ev := Event{
		Type:   string(msg.Type),
		ID:     msg.Actor.ID,
		Action: string(msg.Action),
	}
	if ev.ID == "" {
		ev.ID = msg.ID //nolint:staticcheck // older engines only set the top-level id
	}
	if ev.Action == "" {
		ev.Action = msg.Status //nolint:staticcheck // older engines only set status
	}
	return ev
}
