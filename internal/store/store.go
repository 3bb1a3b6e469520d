// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package store provides the persistence backends for the kitchen
// collections: a local JSON file store, a remote JSON bin mirror, and a
// Firestore realtime store. The reconciliation engine talks to all of
// them through the Backend capability and never sees which one is
// active.
package store

import (
	"context"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

// Collection names the persisted collections. They double as local
// store keys and Firestore collection names.
type Collection string

const (
	CollectionIngredients Collection = "ingredients"
	CollectionRecipes     Collection = "recipes"
	CollectionMenuPlans   Collection = "menuPlans"
)

// Collections bundles a full snapshot of the three kitchen collections.
type Collections struct {
	Ingredients []kitchendb.Ingredient
	Recipes     []kitchendb.Recipe
	MenuPlans   []kitchendb.MenuPlan
}

// Backend is the persistence capability behind the reconciliation
// engine. Saves are full-collection overwrites with last-writer-wins
// semantics; there is no diffing and no version vector.
type Backend interface {
	// Load reads all three collections. Absent collections come back as
	// nil slices, which is not an error.
	Load(ctx context.Context) (*Collections, error)

	SaveIngredients(ctx context.Context, items []kitchendb.Ingredient) error
	SaveRecipes(ctx context.Context, items []kitchendb.Recipe) error
	SaveMenuPlans(ctx context.Context, items []kitchendb.MenuPlan) error

	// Clear removes all persisted collections.
	Clear(ctx context.Context) error
}

// SyncConfigStore is implemented by backends able to persist the
// remote-bin sync configuration alongside the collections.
type SyncConfigStore interface {
	LoadSyncConfig(ctx context.Context) (*kitchendb.SyncConfig, error)
	SaveSyncConfig(ctx context.Context, cfg *kitchendb.SyncConfig) error
	ClearSyncConfig(ctx context.Context) error
}
