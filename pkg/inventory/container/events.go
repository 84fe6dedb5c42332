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
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"k8s.io/apimachinery/pkg/util/wait"
)

// EventAction is what the inventory does in response to an event.
type EventAction string

const (
	ActionIgnore  EventAction = "ignored"
	ActionRefresh EventAction = "refresh"
	ActionRemove  EventAction = "remove"
)

const containerEventType = "container"

var (
	removeActions  = []string{"destroy", "remove"}
	refreshActions = []string{"create", "start", "restart", "rename", "unpause", "pause", "die", "stop"}
)

// normalizeAction case-folds an action and drops any detail after ":",
// as in "health_status: healthy". A Caser is stateful, so one is made per call.
func normalizeAction(action string) string {
	a, _, _ := strings.Cut(action, ":")
	return strings.TrimSpace(cases.Fold().String(a))
}

// Classify maps an event to the inventory action it triggers. Removal is
// checked before refresh.
func Classify(ev Event) EventAction {
	if normalizeAction(ev.Type) != containerEventType || ev.ID == "" {
		return ActionIgnore
	}
	action := normalizeAction(ev.Action)
	for _, a := range removeActions {
		if strings.Contains(action, a) {
			return ActionRemove
		}
	}
	for _, a := range refreshActions {
		if strings.Contains(action, a) {
			return ActionRefresh
		}
	}
	return ActionIgnore
}

// HandleEvent applies ev to the inventory and returns the action taken.
//
// The initialized check and the mutation both happen under writeMu. An
// event that arrives while the first full refresh is running waits for
// the swap and is then applied to the new list. An event seen before any
// refresh started is ignored; that refresh lists after it.
func (inv *Inventory) HandleEvent(ctx context.Context, ev Event) EventAction {
	action := Classify(ev)
	if action == ActionIgnore {
		eventsTotal.WithLabelValues(string(action)).Inc()
		return action
	}

	inv.writeMu.Lock()
	defer inv.writeMu.Unlock()

	if !inv.Initialized() {
		slog.Debug("ignoring event before initialization",
			slog.String("id", ev.ID),
			slog.String("action", ev.Action))
		eventsTotal.WithLabelValues(string(ActionIgnore)).Inc()
		return ActionIgnore
	}

	switch action {
	case ActionRemove:
		inv.removeLocked(ev.ID)
	case ActionRefresh:
		if err := inv.refreshOneLocked(ctx, ev.ID); err != nil {
			slog.Warn("failed to refresh container",
				slog.String("id", ev.ID),
				slog.String("action", ev.Action),
				slog.String("error", err.Error()))
		}
	}

	eventsTotal.WithLabelValues(string(action)).Inc()
	return action
}

// Listen consumes the runtime event feed until ctx is cancelled. When the
// stream ends, it is restarted after the configured backoff.
func (inv *Inventory) Listen(ctx context.Context) {
	first := true
	wait.UntilWithContext(ctx, func(ctx context.Context) {
		if !first {
			listenerRestarts.Inc()
			slog.Info("restarting container event listener")
		}
		first = false

		start := inv.clock.Now()
		err := inv.runtime.Events(ctx, func(ev Event) {
			inv.HandleEvent(ctx, ev)
		})
		if ctx.Err() != nil {
			return
		}
		attrs := []any{
			slog.Duration("ran", inv.clock.Since(start)),
			slog.Duration("backoff", inv.restartBackoff),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slog.Warn("container event stream ended", attrs...)
	}, inv.restartBackoff)
}
