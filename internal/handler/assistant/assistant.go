// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package assistant serves the AI recipe parser and suggester.
package assistant

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/assist"
	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/httpjson"
	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// NewHandler returns a Handler.
func NewHandler(eng *engine.Engine, model assist.Model) *Handler {
	return &Handler{engine: eng, model: model}
}

// Handler serves generative assistance. The parsed recipe is returned
// to the caller for review, not saved; saving goes through the normal
// recipe endpoint and its auto-provisioning.
type Handler struct {
	engine *engine.Engine
	model  assist.Model
}

// Register mounts the assistant routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/assist/parse-recipe", h.ParseRecipe)
	r.Post("/api/assist/suggestions", h.Suggest)
}

type parseRequest struct {
	Text string `json:"text"`
}

func (h *Handler) ParseRecipe(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httpjson.Error(w, r, &store.FormatError{Reason: "text is required"})
		return
	}

	recipe, err := h.model.ParseRecipe(r.Context(), req.Text)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, recipe)
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var available []kitchendb.Ingredient
	for _, ing := range h.engine.Ingredients() {
		if ing.Quantity > 0 {
			available = append(available, ing)
		}
	}

	suggestions, err := h.model.SuggestRecipes(r.Context(), available)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []kitchendb.RecipeSuggestion{}
	}
	httpjson.Write(w, suggestions)
}
