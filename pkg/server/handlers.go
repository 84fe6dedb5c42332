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

package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NVIDIA/hostpulse/pkg/errors"
	"github.com/NVIDIA/hostpulse/pkg/serializer"
)

// handleSnapshot handles GET /v1/snapshot[?force=true].
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		WriteError(w, r, http.StatusServiceUnavailable, errors.ErrCodeUnavailable,
			"snapshot source not configured", false, nil)
		return
	}

	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
				"force must be a boolean", false, map[string]any{"force": v})
			return
		}
		force = b
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.SnapshotTimeout)
	defer cancel()

	snap, err := s.source.GetSnapshot(ctx, force)
	if err != nil {
		if stderrors.Is(err, context.Canceled) && r.Context().Err() != nil {
			slog.Debug("client went away during snapshot", "requestID", r.Context().Value(contextKeyRequestID))
			return
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrap(errors.ErrCodeTimeout, "snapshot timed out", err)
		}
		writeStructuredError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	serializer.RespondJSON(w, http.StatusOK, snap)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	// Snapshots are read-only; any origin may subscribe.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream handles GET /v1/stream. Each broadcast tick is sent as one
// JSON text message until the client disconnects or the broadcaster stops.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.broadcaster == nil {
		WriteError(w, r, http.StatusServiceUnavailable, errors.ErrCodeUnavailable,
			"stream not enabled", false, nil)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drop the read deadline inherited from the HTTP server's ReadTimeout.
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return
	}

	updates, cancel := s.broadcaster.Subscribe()
	defer cancel()

	streamConnections.Inc()
	defer streamConnections.Dec()

	requestID := r.Context().Value(contextKeyRequestID)
	slog.Debug("stream subscriber connected", "requestID", requestID, "remote_addr", r.RemoteAddr)

	// Inbound messages are discarded; reading surfaces close frames and errors.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			slog.Debug("stream subscriber disconnected", "requestID", requestID)
			return
		case snap, ok := <-updates:
			if !ok {
				deadline := time.Now().Add(s.config.StreamWriteTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(s.config.StreamWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				streamMessages.WithLabelValues("error").Inc()
				slog.Debug("stream write failed", "requestID", requestID, "error", err)
				return
			}
			streamMessages.WithLabelValues("sent").Inc()
		}
	}
}
