// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package backup serves export, import, and reset endpoints.
package backup

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/httpjson"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// Imports are bounded; a backup is catalog metadata, not bulk data.
const maxImportBytes = 32 << 20

// NewHandler returns a Handler.
func NewHandler(engine *engine.Engine) *Handler {
	return &Handler{engine: engine}
}

// Handler serves backup and restore.
type Handler struct {
	engine *engine.Engine
}

// Register mounts the backup routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/backup/export", h.Export)
	r.Post("/api/backup/import", h.Import)
	r.Post("/api/backup/clear", h.Clear)
}

func (h *Handler) Export(w http.ResponseWriter, _ *http.Request) {
	doc := h.engine.ExportSnapshot()
	filename := fmt.Sprintf("kitchen_backup_%s.json", doc.ExportDate.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	httpjson.Write(w, doc)
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		httpjson.Error(w, r, &store.FormatError{Reason: "could not read backup payload"})
		return
	}
	if err := h.engine.ImportSnapshot(r.Context(), data); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearAll(r.Context()); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
