// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package inventory serves pantry ingredient endpoints.
package inventory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/httpjson"
	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

// NewHandler returns a Handler.
func NewHandler(engine *engine.Engine) *Handler {
	return &Handler{engine: engine}
}

// Handler serves the pantry catalog and stock alerts.
type Handler struct {
	engine *engine.Engine
}

// Register mounts the inventory routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/ingredients", h.List)
	r.Post("/api/ingredients", h.Add)
	r.Patch("/api/ingredients/{ingredientID}", h.Update)
	r.Delete("/api/ingredients/{ingredientID}", h.Delete)
	r.Get("/api/ingredients/alerts", h.Alerts)
}

func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	httpjson.Write(w, h.engine.Ingredients())
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var ing kitchendb.Ingredient
	if !httpjson.Decode(w, r, &ing) {
		return
	}
	added, err := h.engine.AddIngredient(r.Context(), ing)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, added)
}

type updateRequest struct {
	Name              *string             `json:"name"`
	Quantity          *float64            `json:"quantity"`
	Unit              *kitchendb.Unit     `json:"unit"`
	Category          *kitchendb.Category `json:"category"`
	LowStockThreshold *float64            `json:"lowStockThreshold"`
	ShowInRestockList *bool               `json:"showInRestockList"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	updated, err := h.engine.UpdateIngredient(r.Context(), chi.URLParam(r, "ingredientID"), engine.IngredientUpdate{
		Name:              req.Name,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		Category:          req.Category,
		LowStockThreshold: req.LowStockThreshold,
		ShowInRestockList: req.ShowInRestockList,
	})
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteIngredient(r.Context(), chi.URLParam(r, "ingredientID")); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type alertsResponse struct {
	LowStock    []kitchendb.Ingredient `json:"lowStock"`
	OutOfStock  []kitchendb.Ingredient `json:"outOfStock"`
	RestockList []kitchendb.Ingredient `json:"restockList"`
}

func (h *Handler) Alerts(w http.ResponseWriter, _ *http.Request) {
	httpjson.Write(w, alertsResponse{
		LowStock:    h.engine.CheckLowStock(),
		OutOfStock:  h.engine.OutOfStock(),
		RestockList: h.engine.RestockList(),
	})
}
