// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// defaultLockAge is how old an active lock must be before cleanup considers
// it orphaned by a crashed process.
const defaultLockAge = 2 * time.Hour

func (server *Server) listLocks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	locks, err := server.locks.ListActive(ctx)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, locks)
}

func (server *Server) forceReleaseLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "failed to decode request body", err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Key == "" {
		sendJSONError(w, "key is required", "", http.StatusBadRequest)
		return
	}

	if err := server.locks.ForceRelease(ctx, payload.Key); err != nil {
		serveError(w, err)
		return
	}
	server.log.Warn("migration lock force-released", zap.String("key", payload.Key))
	sendJSON(w, http.StatusOK, struct {
		Released string `json:"released"`
	}{Released: payload.Key})
}

func (server *Server) cleanupLocks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	age := defaultLockAge
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			sendJSONError(w, "invalid older_than duration", err.Error(), http.StatusBadRequest)
			return
		}
		age = parsed
	}

	cleaned, err := server.locks.CleanupOlderThan(ctx, age)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, struct {
		Cleaned   int64  `json:"cleaned"`
		OlderThan string `json:"olderThan"`
	}{Cleaned: cleaned, OlderThan: age.String()})
}
