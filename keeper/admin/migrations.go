// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/qcplatform/schemad/keeper/schema"
)

func (server *Server) executeTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		TableName     string               `json:"tableName"`
		DatabaseType  schema.DatabaseType  `json:"databaseType"`
		PartitionType schema.PartitionType `json:"partitionType"`
		SchemaVersion string               `json:"schemaVersion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "failed to decode request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := server.migrator.MigrateTable(ctx, payload.TableName,
		payload.DatabaseType, payload.PartitionType, payload.SchemaVersion)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

func (server *Server) executeAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := server.migrator.MigrateAllTables(ctx)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

func (server *Server) executeStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		StoreID      string `json:"storeId"`
		EnterpriseID int64  `json:"enterpriseId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "failed to decode request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := server.migrator.MigrateStoreShards(ctx, payload.StoreID, payload.EnterpriseID)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

func (server *Server) migrationBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := server.history.ByBatch(ctx, mux.Vars(r)["batch"])
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, records)
}

func (server *Server) migrationsByTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	table := mux.Vars(r)["table"]
	db := schema.DatabaseType(r.URL.Query().Get("database_type"))
	if !db.Valid() {
		sendJSONError(w, "database_type missing or unknown", string(db), http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			sendJSONError(w, "invalid limit", err.Error(), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := server.history.ByTable(ctx, table, db, limit)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, records)
}
