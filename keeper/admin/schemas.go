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

func (server *Server) createSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		TableName     string                 `json:"tableName"`
		DatabaseType  schema.DatabaseType    `json:"databaseType"`
		PartitionType schema.PartitionType   `json:"partitionType"`
		TimeInterval  schema.TimeInterval    `json:"timeInterval"`
		TimeFormat    string                 `json:"timeFormat"`
		SchemaVersion string                 `json:"schemaVersion"`
		Definition    schema.TableDefinition `json:"definition"`
		UpgradeNotes  string                 `json:"upgradeNotes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "failed to decode request body", err.Error(), http.StatusBadRequest)
		return
	}

	entry := &schema.TableSchema{
		TableName:     payload.TableName,
		DatabaseType:  payload.DatabaseType,
		PartitionType: payload.PartitionType,
		TimeInterval:  payload.TimeInterval,
		TimeFormat:    payload.TimeFormat,
		SchemaVersion: payload.SchemaVersion,
		Definition:    payload.Definition,
		UpgradeNotes:  payload.UpgradeNotes,
	}
	if err := server.catalog.PutNewVersion(ctx, entry); err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, entry)
}

func (server *Server) listSchemas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := server.catalog.ListAllActive(ctx)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, entries)
}

func (server *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	table := mux.Vars(r)["table"]
	db := schema.DatabaseType(r.URL.Query().Get("database_type"))
	pt := schema.PartitionType(r.URL.Query().Get("partition_type"))
	schemaVersion := r.URL.Query().Get("schema_version")

	if !db.Valid() {
		sendJSONError(w, "database_type missing or unknown", string(db), http.StatusBadRequest)
		return
	}

	if pt == "" {
		matches, err := server.catalog.FindActiveMatches(ctx, table, db)
		if err != nil {
			serveError(w, err)
			return
		}
		switch len(matches) {
		case 0:
			sendJSONError(w, "not found", table, http.StatusNotFound)
			return
		case 1:
			pt = matches[0].PartitionType
		default:
			choices := make([]string, 0, len(matches))
			for _, match := range matches {
				choices = append(choices, string(match.PartitionType))
			}
			sendJSON(w, http.StatusConflict, struct {
				Error   string   `json:"error"`
				Choices []string `json:"choices"`
			}{
				Error:   "partition type is ambiguous",
				Choices: choices,
			})
			return
		}
	}

	var entry *schema.TableSchema
	var err error
	if schemaVersion != "" {
		entry, err = server.catalog.GetVersion(ctx, table, db, pt, schemaVersion)
	} else {
		entry, err = server.catalog.GetActive(ctx, table, db, pt)
	}
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, entry)
}

func (server *Server) schemaHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	table := mux.Vars(r)["table"]
	db := schema.DatabaseType(r.URL.Query().Get("database_type"))
	if !db.Valid() {
		sendJSONError(w, "database_type missing or unknown", string(db), http.StatusBadRequest)
		return
	}

	entries, err := server.catalog.History(ctx, table, db)
	if err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, entries)
}

func (server *Server) deleteSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		sendJSONError(w, "invalid schema id", err.Error(), http.StatusBadRequest)
		return
	}
	if err := server.catalog.Deactivate(ctx, id); err != nil {
		serveError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, struct {
		Deactivated int64 `json:"deactivated"`
	}{Deactivated: id})
}
