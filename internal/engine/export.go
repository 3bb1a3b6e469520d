// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

const exportVersion = 1

// ExportDocument is the canonical backup format. Quantities are
// zeroed on export: a backup describes what the kitchen stocks, not
// how much is on hand right now. Menu plans are not exported.
type ExportDocument struct {
	Ingredients []kitchendb.Ingredient `json:"ingredients"`
	Recipes     []kitchendb.Recipe     `json:"recipes"`
	Version     int                    `json:"version"`
	ExportDate  time.Time              `json:"exportDate"`
}

// ExportSnapshot builds a backup document from the current state.
func (e *Engine) ExportSnapshot() ExportDocument {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportLocked()
}

func (e *Engine) exportLocked() ExportDocument {
	doc := ExportDocument{
		Ingredients: make([]kitchendb.Ingredient, len(e.ingredients)),
		Recipes:     make([]kitchendb.Recipe, len(e.recipes)),
		Version:     exportVersion,
		ExportDate:  e.now(),
	}
	copy(doc.Ingredients, e.ingredients)
	copy(doc.Recipes, e.recipes)
	for i := range doc.Ingredients {
		doc.Ingredients[i].Quantity = 0
	}
	return doc
}

// ImportSnapshot replaces the catalogs with the document's contents.
// The incoming record wins every field except quantity: an ingredient
// whose ID already exists locally keeps the local on-hand quantity,
// everything else arrives at zero. Menu plans are only restored when
// the engine persists locally; in bin and realtime modes a stray
// menuPlans field is ignored.
func (e *Engine) ImportSnapshot(ctx context.Context, data []byte) error {
	var raw struct {
		Ingredients json.RawMessage `json:"ingredients"`
		Recipes     json.RawMessage `json:"recipes"`
		MenuPlans   json.RawMessage `json:"menuPlans"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return &store.FormatError{Reason: "not a JSON object"}
	}
	ingredients, err := decodeArray[kitchendb.Ingredient](raw.Ingredients, "ingredients")
	if err != nil {
		return err
	}
	recipes, err := decodeArray[kitchendb.Recipe](raw.Recipes, "recipes")
	if err != nil {
		return err
	}

	var plans []kitchendb.MenuPlan
	restorePlans := false
	if e.mode == ModeLocal && present(raw.MenuPlans) {
		plans, err = decodeArray[kitchendb.MenuPlan](raw.MenuPlans, "menuPlans")
		if err != nil {
			return err
		}
		for i := range plans {
			plans[i] = kitchendb.NormalizeMenuPlan(plans[i])
		}
		restorePlans = true
	}

	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return err
	}

	local := make(map[string]float64, len(e.ingredients))
	for _, ing := range e.ingredients {
		local[ing.ID] = ing.Quantity
	}
	for i := range ingredients {
		if qty, ok := local[ingredients[i].ID]; ok {
			ingredients[i].Quantity = qty
		} else {
			ingredients[i].Quantity = 0
		}
	}
	for i := range recipes {
		recipes[i].EnsureDefaults()
	}

	e.ingredients = ingredients
	e.recipes = recipes
	if err := backend.SaveIngredients(ctx, e.ingredients); err != nil {
		return err
	}
	if err := backend.SaveRecipes(ctx, e.recipes); err != nil {
		return err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionIngredients})
	e.notifyLocked(&p, Change{Collection: store.CollectionRecipes})

	if restorePlans {
		e.menuPlans = plans
		if err := backend.SaveMenuPlans(ctx, e.menuPlans); err != nil {
			return err
		}
		e.notifyLocked(&p, Change{Collection: store.CollectionMenuPlans})
	}
	return nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func decodeArray[T any](raw json.RawMessage, field string) ([]T, error) {
	if !present(raw) {
		return nil, &store.FormatError{Reason: field + " must be an array"}
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &store.FormatError{Reason: field + " must be an array"}
	}
	return items, nil
}
