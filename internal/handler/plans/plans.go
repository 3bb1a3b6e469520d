// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package plans serves the weekly menu plan endpoints.
package plans

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/httpjson"
	"github.com/wisdyxxyy/KitchenOS/internal/images"
	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

// NewHandler returns a Handler.
func NewHandler(eng *engine.Engine, imageWriter *images.Writer) *Handler {
	return &Handler{engine: eng, images: imageWriter}
}

// Handler serves menu plan reads and upserts.
type Handler struct {
	engine *engine.Engine
	images *images.Writer
}

// Register mounts the plan routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/plans", h.List)
	r.Put("/api/plans/{date}", h.Upsert)
}

func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	httpjson.Write(w, h.engine.MenuPlans())
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var plan kitchendb.MenuPlan
	if !httpjson.Decode(w, r, &plan) {
		return
	}
	plan.Date = chi.URLParam(r, "date")

	var err error
	if plan.LunchImage, err = h.images.Save(r.Context(), fmt.Sprintf("plans/%s/lunch", plan.Date), plan.LunchImage); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	if plan.DinnerImage, err = h.images.Save(r.Context(), fmt.Sprintf("plans/%s/dinner", plan.Date), plan.DinnerImage); err != nil {
		httpjson.Error(w, r, err)
		return
	}

	saved, err := h.engine.UpsertMenuPlan(r.Context(), plan)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, saved)
}
