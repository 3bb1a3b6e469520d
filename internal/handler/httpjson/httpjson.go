// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package httpjson holds the JSON plumbing shared by the API handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// Decode reads the request body into v, reporting a 400 on malformed
// JSON. It returns false when the response has already been written.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, r, &store.FormatError{Reason: "request body is not valid JSON"})
		return false
	}
	return true
}

// Write responds with v as JSON.
func Write(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("httpjson: encoding response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// Error translates the error taxonomy to an HTTP status and writes a
// JSON error body.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: err.Error()}

	var accessErr *store.AccessError
	switch {
	case errors.Is(err, store.ErrBadFormat),
		errors.Is(err, engine.ErrNegativeQuantity),
		errors.Is(err, engine.ErrDateRequired),
		errors.Is(err, engine.ErrNoSyncConfig),
		errors.Is(err, engine.ErrSyncUnsupported):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.As(err, &accessErr):
		status = http.StatusForbidden
		body.Error = accessErr.Message
		body.Hint = accessErr.Hint
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrStorageCorruption):
		status = http.StatusInternalServerError
	default:
		var remoteErr *store.RemoteServiceError
		if errors.As(err, &remoteErr) {
			status = http.StatusBadGateway
		}
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), fmt.Sprintf("httpjson: %s %s failed", r.Method, r.URL.Path), "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		slog.Error("httpjson: encoding error response", "error", encErr)
	}
}
