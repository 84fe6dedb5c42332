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
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/hostpulse/pkg/errors"
)

const headerRequestID = "X-Request-Id"

// withMiddleware wraps the snapshot and stream handlers. Outermost first:
// metrics, version, request ID, recovery, rate limit, access log.
func (s *Server) withMiddleware(h http.HandlerFunc) http.HandlerFunc {
	h = s.accessLog(h)
	h = s.limit(h)
	h = s.recoverPanics(h)
	h = s.requestID(h)
	h = s.negotiateVersion(h)
	return s.metricsMiddleware(h)
}

func (s *Server) negotiateVersion(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := negotiateAPIVersion(r)
		SetAPIVersionHeader(w, v)
		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyAPIVersion, v)))
	}
}

// requestID keeps a caller supplied UUID and mints one otherwise.
func (s *Server) requestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	}
}

// limit applies the shared token bucket. A stream upgrade costs one token
// like any other request.
func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	if s.rateLimiter == nil {
		return next
	}
	limit := strconv.Itoa(int(s.config.RateLimit))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", limit)
		if !s.rateLimiter.Allow() {
			rateLimitRejects.Inc()
			w.Header().Set("Retry-After", "1")
			WriteError(w, r, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded,
				"Rate limit exceeded", true, map[string]any{
					"limit": float64(s.config.RateLimit),
					"burst": s.config.RateLimitBurst,
				})
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(s.rateLimiter.Tokens())))
		next(w, r)
	}
}

func (s *Server) recoverPanics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			panicRecoveries.Inc()
			slog.Error("panic recovered",
				"error", fmt.Sprint(rec),
				"requestID", r.Context().Value(contextKeyRequestID),
				"method", r.Method,
				"path", r.URL.Path,
			)
			WriteError(w, r, http.StatusInternalServerError, errors.ErrCodeInternal,
				"Internal server error", true, nil)
		}()
		next(w, r)
	}
}

// accessLog writes one record per request. Server errors log at warn.
func (s *Server) accessLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next(rw, r)

		level := slog.LevelDebug
		if rw.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "request",
			"requestID", r.Context().Value(contextKeyRequestID),
			"method", r.Method,
			"route", routeLabel(r),
			"status", rw.Status(),
			"took", time.Since(start),
		)
	}
}
