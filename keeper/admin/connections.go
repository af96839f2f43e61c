// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package admin

import (
	"net/http"
	"strconv"
)

func (server *Server) connectionStats(w http.ResponseWriter, r *http.Request) {
	keys := server.conns.Stats()
	sendJSON(w, http.StatusOK, struct {
		Count int      `json:"count"`
		Keys  []string `json:"keys"`
	}{Count: len(keys), Keys: keys})
}

func (server *Server) closeConnections(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("enterprise_id")
	if raw == "" {
		if err := server.conns.CloseAll(); err != nil {
			serveError(w, err)
			return
		}
		sendJSON(w, http.StatusOK, struct {
			Closed string `json:"closed"`
		}{Closed: "all"})
		return
	}

	enterpriseID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		sendJSONError(w, "invalid enterprise_id", err.Error(), http.StatusBadRequest)
		return
	}
	if err := server.conns.CloseTenant(enterpriseID); err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, struct {
		Closed int64 `json:"closed"`
	}{Closed: enterpriseID})
}
