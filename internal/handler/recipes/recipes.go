// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package recipes serves the recipe catalog endpoints.
package recipes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/httpjson"
	"github.com/wisdyxxyy/KitchenOS/internal/images"
	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// NewHandler returns a Handler.
func NewHandler(eng *engine.Engine, imageWriter *images.Writer) *Handler {
	return &Handler{engine: eng, images: imageWriter}
}

// Handler serves recipe CRUD.
type Handler struct {
	engine *engine.Engine
	images *images.Writer
}

// Register mounts the recipe routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/recipes", h.List)
	r.Get("/api/recipes/{recipeID}", h.Get)
	r.Post("/api/recipes", h.Add)
	r.Patch("/api/recipes/{recipeID}", h.Update)
	r.Delete("/api/recipes/{recipeID}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	httpjson.Write(w, h.engine.Recipes())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recipeID")
	recipe, ok := h.engine.GetRecipeByID(id)
	if !ok {
		httpjson.Error(w, r, &store.NotFoundError{Resource: "recipe " + id})
		return
	}
	httpjson.Write(w, recipe)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var recipe kitchendb.Recipe
	if !httpjson.Decode(w, r, &recipe) {
		return
	}

	added, err := h.engine.AddRecipe(r.Context(), recipe)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	if added.Image != "" {
		url, err := h.images.Save(r.Context(), fmt.Sprintf("recipes/%s/image", added.ID), added.Image)
		if err != nil {
			httpjson.Error(w, r, err)
			return
		}
		if url != added.Image {
			added, err = h.engine.UpdateRecipe(r.Context(), added.ID, engine.RecipeUpdate{Image: &url})
			if err != nil {
				httpjson.Error(w, r, err)
				return
			}
		}
	}
	httpjson.Write(w, added)
}

type updateRequest struct {
	Name        *string                       `json:"name"`
	Ingredients *[]kitchendb.RecipeIngredient `json:"ingredients"`
	Steps       *[]string                     `json:"steps"`
	Tags        *[]string                     `json:"tags"`
	PrepTime    *string                       `json:"prepTime"`
	Description *string                       `json:"description"`
	Image       *string                       `json:"image"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "recipeID")

	if req.Image != nil && *req.Image != "" {
		url, err := h.images.Save(r.Context(), fmt.Sprintf("recipes/%s/image", id), *req.Image)
		if err != nil {
			httpjson.Error(w, r, err)
			return
		}
		req.Image = &url
	}

	updated, err := h.engine.UpdateRecipe(r.Context(), id, engine.RecipeUpdate{
		Name:        req.Name,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		Tags:        req.Tags,
		PrepTime:    req.PrepTime,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteRecipe(r.Context(), chi.URLParam(r, "recipeID")); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
