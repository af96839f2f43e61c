// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qcplatform/schemad/keeper/schema"
)

func (server *Server) detectAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	proposals, err := server.detector.DetectAll(ctx)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, struct {
		Count     int                   `json:"count"`
		Proposals []*schema.TableSchema `json:"proposals"`
	}{Count: len(proposals), Proposals: proposals})
}

func (server *Server) detectAndSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	proposals, err := server.detector.DetectAll(ctx)
	if err != nil {
		serveError(w, err)
		return
	}
	if err := server.detector.SaveDetected(ctx, proposals); err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, struct {
		Saved     int                   `json:"saved"`
		Proposals []*schema.TableSchema `json:"proposals"`
	}{Saved: len(proposals), Proposals: proposals})
}

func (server *Server) detectTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	proposal, err := server.detector.DetectTable(ctx, mux.Vars(r)["table"])
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, struct {
		Changed  bool                `json:"changed"`
		Proposal *schema.TableSchema `json:"proposal,omitempty"`
	}{Changed: proposal != nil, Proposal: proposal})
}
