// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package admin

import "net/http"

func (server *Server) triggerTimeshard(w http.ResponseWriter, r *http.Request) {
	server.timeshard.TriggerWait()
	sendJSON(w, http.StatusOK, struct {
		Triggered string `json:"triggered"`
	}{Triggered: "timeshard"})
}

func (server *Server) triggerRetention(w http.ResponseWriter, r *http.Request) {
	server.retention.TriggerWait()
	sendJSON(w, http.StatusOK, struct {
		Triggered string `json:"triggered"`
	}{Triggered: "retention"})
}
