// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package sync serves the remote bin link and transfer endpoints.
package sync

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/httpjson"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// NewHandler returns a Handler.
func NewHandler(engine *engine.Engine) *Handler {
	return &Handler{engine: engine}
}

// Handler serves the bin sync lifecycle.
type Handler struct {
	engine *engine.Engine
}

// Register mounts the sync routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/sync", h.Status)
	r.Post("/api/sync/link", h.Link)
	r.Post("/api/sync/create", h.Create)
	r.Post("/api/sync/push", h.Push)
	r.Post("/api/sync/pull", h.Pull)
	r.Delete("/api/sync", h.Unlink)
}

// Status reports the link without echoing the master key.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	cfg := h.engine.SyncConfig()
	if cfg == nil {
		httpjson.Write(w, map[string]any{"linked": false})
		return
	}
	httpjson.Write(w, map[string]any{
		"linked":     true,
		"binId":      cfg.BinID,
		"lastSynced": cfg.LastSynced,
	})
}

type linkRequest struct {
	APIKey string `json:"apiKey"`
	BinID  string `json:"binId"`
}

func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if req.APIKey == "" || req.BinID == "" {
		httpjson.Error(w, r, &store.FormatError{Reason: "apiKey and binId are required"})
		return
	}
	if err := h.engine.LinkRemote(r.Context(), req.APIKey, req.BinID); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createRequest struct {
	APIKey string `json:"apiKey"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if req.APIKey == "" {
		httpjson.Error(w, r, &store.FormatError{Reason: "apiKey is required"})
		return
	}
	cfg, err := h.engine.CreateRemoteFromLocal(r.Context(), req.APIKey)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, map[string]any{"binId": cfg.BinID, "lastSynced": cfg.LastSynced})
}

func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.engine.PushToRemote(r.Context())
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, map[string]any{"lastSynced": cfg.LastSynced})
}

func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.engine.PullFromRemote(r.Context())
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, map[string]any{"lastSynced": cfg.LastSynced})
}

func (h *Handler) Unlink(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.UnlinkRemote(r.Context()); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
