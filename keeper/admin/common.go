// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zeebo/errs"

	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/schema"
)

// Error is the default error class for the admin package.
var Error = errs.Class("admin")

// sendJSONError writes a JSON error response with a status code.
func sendJSONError(w http.ResponseWriter, errMsg, detail string, statusCode int) {
	errStr := struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}{
		Error:  errMsg,
		Detail: detail,
	}
	body, err := json.Marshal(errStr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sendJSONData(w, statusCode, body)
}

// sendJSONData writes JSON data with a status code.
func sendJSONData(w http.ResponseWriter, statusCode int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(data)
}

// sendJSON marshals the value and writes it with a status code.
func sendJSON(w http.ResponseWriter, statusCode int, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		sendJSONError(w, "json encoding failed", err.Error(), http.StatusInternalServerError)
		return
	}
	sendJSONData(w, statusCode, data)
}

// serveError maps domain errors to HTTP status codes. Lock conflicts carry
// the conflicting lock snapshot in the response body.
func serveError(w http.ResponseWriter, err error) {
	var conflict *migration.ConflictError
	if errors.As(err, &conflict) {
		sendJSON(w, http.StatusConflict, struct {
			Error string         `json:"error"`
			Lock  migration.Lock `json:"lock"`
		}{
			Error: err.Error(),
			Lock:  conflict.Existing,
		})
		return
	}

	switch {
	case schema.ErrValidation.Has(err), schema.ErrVersionOrder.Has(err):
		sendJSONError(w, "invalid request", err.Error(), http.StatusBadRequest)
	case schema.ErrNotFound.Has(err):
		sendJSONError(w, "not found", err.Error(), http.StatusNotFound)
	case schema.ErrAmbiguous.Has(err):
		sendJSONError(w, "partition type is ambiguous", err.Error(), http.StatusConflict)
	case migration.ErrNotHolder.Has(err):
		sendJSONError(w, "not lock holder", err.Error(), http.StatusConflict)
	default:
		sendJSONError(w, "internal server error", err.Error(), http.StatusInternalServerError)
	}
}
