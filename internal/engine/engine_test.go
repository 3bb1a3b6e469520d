// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// fakeBackend is an in-memory store.Backend and store.SyncConfigStore
// recording what was persisted.
type fakeBackend struct {
	ingredients []kitchendb.Ingredient
	recipes     []kitchendb.Recipe
	menuPlans   []kitchendb.MenuPlan
	syncCfg     *kitchendb.SyncConfig

	saveIngredientCalls int
	failSaves           error
}

func (f *fakeBackend) Load(_ context.Context) (*store.Collections, error) {
	return &store.Collections{
		Ingredients: f.ingredients,
		Recipes:     f.recipes,
		MenuPlans:   f.menuPlans,
	}, nil
}

func (f *fakeBackend) SaveIngredients(_ context.Context, items []kitchendb.Ingredient) error {
	if f.failSaves != nil {
		return f.failSaves
	}
	f.saveIngredientCalls++
	f.ingredients = append([]kitchendb.Ingredient(nil), items...)
	return nil
}

func (f *fakeBackend) SaveRecipes(_ context.Context, items []kitchendb.Recipe) error {
	if f.failSaves != nil {
		return f.failSaves
	}
	f.recipes = append([]kitchendb.Recipe(nil), items...)
	return nil
}

func (f *fakeBackend) SaveMenuPlans(_ context.Context, items []kitchendb.MenuPlan) error {
	if f.failSaves != nil {
		return f.failSaves
	}
	f.menuPlans = append([]kitchendb.MenuPlan(nil), items...)
	return nil
}

func (f *fakeBackend) Clear(_ context.Context) error {
	f.ingredients = nil
	f.recipes = nil
	f.menuPlans = nil
	return nil
}

func (f *fakeBackend) LoadSyncConfig(_ context.Context) (*kitchendb.SyncConfig, error) {
	return f.syncCfg, nil
}

func (f *fakeBackend) SaveSyncConfig(_ context.Context, cfg *kitchendb.SyncConfig) error {
	f.syncCfg = cfg
	return nil
}

func (f *fakeBackend) ClearSyncConfig(_ context.Context) error {
	f.syncCfg = nil
	return nil
}

func newTestEngine(t *testing.T, mode Mode, backend store.Backend, opts ...Option) *Engine {
	t.Helper()
	n := 0
	opts = append(opts,
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string {
			n++
			return "id-" + strconv.Itoa(n)
		}),
	)
	e := New(mode, backend, opts...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e
}

func TestAddIngredientDefaults(t *testing.T) {
	backend := &fakeBackend{}
	e := newTestEngine(t, ModeLocal, backend)

	ing, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Flour", Quantity: 2})
	if err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	if ing.ID == "" {
		t.Error("expected assigned ID")
	}
	if ing.Unit != kitchendb.UnitPiece {
		t.Errorf("unit = %q, want %q", ing.Unit, kitchendb.UnitPiece)
	}
	if ing.Category != kitchendb.CategoryOther {
		t.Errorf("category = %q, want %q", ing.Category, kitchendb.CategoryOther)
	}
	if ing.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt stamp")
	}
	if len(backend.ingredients) != 1 {
		t.Fatalf("persisted %d ingredients, want 1", len(backend.ingredients))
	}
}

func TestAddIngredientNegativeQuantity(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	_, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Flour", Quantity: -1})
	if !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("err = %v, want ErrNegativeQuantity", err)
	}
	if got := e.Ingredients(); len(got) != 0 {
		t.Errorf("catalog has %d items after rejected add", len(got))
	}
}

func TestUpdateIngredientPartial(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	ing, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{
		Name:     "Milk",
		Quantity: 3,
		Unit:     kitchendb.UnitLiter,
		Category: kitchendb.CategoryDairy,
	})
	if err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}

	qty := 1.5
	got, err := e.UpdateIngredient(context.Background(), ing.ID, IngredientUpdate{Quantity: &qty})
	if err != nil {
		t.Fatalf("UpdateIngredient: %v", err)
	}
	if got.Quantity != 1.5 {
		t.Errorf("quantity = %v, want 1.5", got.Quantity)
	}
	if got.Name != "Milk" || got.Unit != kitchendb.UnitLiter || got.Category != kitchendb.CategoryDairy {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestUpdateIngredientNotFound(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	name := "Salt"
	_, err := e.UpdateIngredient(context.Background(), "missing", IngredientUpdate{Name: &name})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteIngredientKeepsRecipes(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	ing, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Basil", Quantity: 1})
	if err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	if _, err := e.AddRecipe(context.Background(), kitchendb.Recipe{
		Name:        "Pesto",
		Ingredients: []kitchendb.RecipeIngredient{{Name: "Basil", Quantity: "2 cups"}},
	}); err != nil {
		t.Fatalf("AddRecipe: %v", err)
	}

	if err := e.DeleteIngredient(context.Background(), ing.ID); err != nil {
		t.Fatalf("DeleteIngredient: %v", err)
	}
	recipes := e.Recipes()
	if len(recipes) != 1 || len(recipes[0].Ingredients) != 1 {
		t.Fatalf("recipe lines changed after ingredient delete: %+v", recipes)
	}
}

func TestAddRecipeProvisionsPantry(t *testing.T) {
	backend := &fakeBackend{}
	e := newTestEngine(t, ModeLocal, backend)

	if _, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Tomato", Quantity: 5}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}

	r, err := e.AddRecipe(context.Background(), kitchendb.Recipe{
		Name: "Salsa",
		Ingredients: []kitchendb.RecipeIngredient{
			{Name: "tomato", Quantity: "3"},
			{Name: "  onion ", Quantity: "1"},
			{Name: "", Quantity: "2"},
		},
	})
	if err != nil {
		t.Fatalf("AddRecipe: %v", err)
	}
	if r.ID == "" {
		t.Error("expected assigned recipe ID")
	}

	ings := e.Ingredients()
	if len(ings) != 2 {
		t.Fatalf("catalog has %d items, want 2 (existing tomato plus provisioned onion)", len(ings))
	}
	onion := ings[1]
	if onion.Name != "Onion" {
		t.Errorf("provisioned name = %q, want %q", onion.Name, "Onion")
	}
	if onion.Quantity != 0 {
		t.Errorf("provisioned quantity = %v, want 0", onion.Quantity)
	}
	if onion.Unit != kitchendb.UnitPiece || onion.Category != kitchendb.CategoryOther {
		t.Errorf("provisioned defaults wrong: %+v", onion)
	}
	if onion.LowStockThreshold != 1 {
		t.Errorf("provisioned threshold = %v, want 1", onion.LowStockThreshold)
	}
	if !onion.InRestockList() {
		t.Error("provisioned item should be in restock list")
	}
}

func TestAddRecipeProvisionDedup(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	if _, err := e.AddRecipe(context.Background(), kitchendb.Recipe{
		Name: "Soup",
		Ingredients: []kitchendb.RecipeIngredient{
			{Name: "leek", Quantity: "2"},
			{Name: "Leek", Quantity: "1 more"},
		},
	}); err != nil {
		t.Fatalf("AddRecipe: %v", err)
	}
	if ings := e.Ingredients(); len(ings) != 1 {
		t.Fatalf("catalog has %d items, want 1", len(ings))
	}
}

func TestUpdateRecipeProvisionsNewLines(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	r, err := e.AddRecipe(context.Background(), kitchendb.Recipe{Name: "Toast"})
	if err != nil {
		t.Fatalf("AddRecipe: %v", err)
	}

	lines := []kitchendb.RecipeIngredient{{Name: "bread", Quantity: "2 slices"}}
	got, err := e.UpdateRecipe(context.Background(), r.ID, RecipeUpdate{Ingredients: &lines})
	if err != nil {
		t.Fatalf("UpdateRecipe: %v", err)
	}
	if len(got.Ingredients) != 1 {
		t.Fatalf("recipe lines = %+v", got.Ingredients)
	}
	ings := e.Ingredients()
	if len(ings) != 1 || ings[0].Name != "Bread" {
		t.Fatalf("expected provisioned Bread, got %+v", ings)
	}
}

func TestUpsertMenuPlanReplacesByDate(t *testing.T) {
	backend := &fakeBackend{}
	e := newTestEngine(t, ModeLocal, backend)

	if _, err := e.UpsertMenuPlan(context.Background(), kitchendb.MenuPlan{
		Date:           "2024-05-01",
		LunchRecipeIDs: []string{"r1", "r1", "r2"},
	}); err != nil {
		t.Fatalf("UpsertMenuPlan: %v", err)
	}
	plan, err := e.UpsertMenuPlan(context.Background(), kitchendb.MenuPlan{
		Date:            "2024-05-01",
		DinnerRecipeIDs: []string{"r3"},
	})
	if err != nil {
		t.Fatalf("UpsertMenuPlan: %v", err)
	}

	plans := e.MenuPlans()
	if len(plans) != 1 {
		t.Fatalf("have %d plans for one date, want 1", len(plans))
	}
	if len(plan.LunchRecipeIDs) != 0 || len(plan.DinnerRecipeIDs) != 1 {
		t.Errorf("second upsert did not replace: %+v", plan)
	}
	if len(backend.menuPlans) != 1 {
		t.Errorf("persisted %d plans, want 1", len(backend.menuPlans))
	}
}

func TestUpsertMenuPlanDedupsRecipeIDs(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	plan, err := e.UpsertMenuPlan(context.Background(), kitchendb.MenuPlan{
		Date:           "2024-05-02",
		LunchRecipeIDs: []string{"a", "b", "a"},
	})
	if err != nil {
		t.Fatalf("UpsertMenuPlan: %v", err)
	}
	if len(plan.LunchRecipeIDs) != 2 {
		t.Errorf("lunch IDs = %v, want [a b]", plan.LunchRecipeIDs)
	}
}

func TestUpsertMenuPlanRequiresDate(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	_, err := e.UpsertMenuPlan(context.Background(), kitchendb.MenuPlan{})
	if !errors.Is(err, ErrDateRequired) {
		t.Fatalf("err = %v, want ErrDateRequired", err)
	}
}

func TestStockBuckets(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	hide := false
	items := []kitchendb.Ingredient{
		{Name: "Out", Quantity: 0, LowStockThreshold: 1},
		{Name: "Low", Quantity: 1, LowStockThreshold: 2},
		{Name: "AtThreshold", Quantity: 2, LowStockThreshold: 2},
		{Name: "Stocked", Quantity: 5, LowStockThreshold: 2},
		{Name: "Hidden", Quantity: 0, LowStockThreshold: 1, ShowInRestockList: &hide},
	}
	for _, ing := range items {
		if _, err := e.AddIngredient(context.Background(), ing); err != nil {
			t.Fatalf("AddIngredient(%s): %v", ing.Name, err)
		}
	}

	low := names(e.CheckLowStock())
	if fmt.Sprint(low) != "[Low AtThreshold]" {
		t.Errorf("low stock = %v", low)
	}
	out := names(e.OutOfStock())
	if fmt.Sprint(out) != "[Out Hidden]" {
		t.Errorf("out of stock = %v", out)
	}
	restock := names(e.RestockList())
	if fmt.Sprint(restock) != "[Out Low AtThreshold]" {
		t.Errorf("restock list = %v", restock)
	}
}

func names(items []kitchendb.Ingredient) []string {
	out := make([]string, len(items))
	for i, ing := range items {
		out[i] = ing.Name
	}
	return out
}

func TestClearAll(t *testing.T) {
	backend := &fakeBackend{}
	e := newTestEngine(t, ModeLocal, backend)

	if _, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Rice", Quantity: 1}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	if _, err := e.AddRecipe(context.Background(), kitchendb.Recipe{Name: "Rice Bowl"}); err != nil {
		t.Fatalf("AddRecipe: %v", err)
	}

	if err := e.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if len(e.Ingredients()) != 0 || len(e.Recipes()) != 0 || len(e.MenuPlans()) != 0 {
		t.Error("collections not empty after ClearAll")
	}
	if backend.ingredients != nil || backend.recipes != nil {
		t.Error("backend not cleared")
	}
}

func TestObserverNotified(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	var changes []store.Collection
	cancel := e.Subscribe(func(c Change) {
		changes = append(changes, c.Collection)
	})

	if _, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Tea", Quantity: 1}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	if len(changes) != 1 || changes[0] != store.CollectionIngredients {
		t.Fatalf("changes = %v", changes)
	}

	cancel()
	if _, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Coffee", Quantity: 1}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	if len(changes) != 1 {
		t.Errorf("observer notified after cancel: %v", changes)
	}
}

func TestObserverReentrancy(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	var seen int
	e.Subscribe(func(_ Change) {
		seen = len(e.Ingredients())
	})

	if _, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Egg", Quantity: 6}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	if seen != 1 {
		t.Errorf("observer read %d ingredients, want 1", seen)
	}
}

func TestMutationsFailWithoutBackend(t *testing.T) {
	e := newTestEngine(t, ModeRealtime, nil)

	_, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Flour", Quantity: 1})
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSaveFailurePropagates(t *testing.T) {
	backend := &fakeBackend{}
	e := newTestEngine(t, ModeLocal, backend)

	backend.failSaves = errors.New("disk full")
	_, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Flour", Quantity: 1})
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("err = %v, want disk full", err)
	}
}
