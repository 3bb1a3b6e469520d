// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package stats

import (
	"reflect"
	"testing"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

func TestConsumptionAttributesWindowCount(t *testing.T) {
	recipes := []kitchendb.Recipe{{
		ID:          "r1",
		Name:        "Omelette",
		Ingredients: []kitchendb.RecipeIngredient{{Name: "Egg", Quantity: "2"}},
	}}
	plans := []kitchendb.MenuPlan{
		{Date: "2024-05-01", LunchRecipeIDs: []string{"r1"}},
		{Date: "2024-05-02", LunchRecipeIDs: []string{"r1"}},
	}

	res := Consumption(plans, recipes, "2024-05-01", "2024-05-07")
	if res.TotalMeals != 2 {
		t.Errorf("totalMeals = %d, want 2", res.TotalMeals)
	}
	if len(res.TopRecipes) != 1 || res.TopRecipes[0].Recipe.ID != "r1" || res.TopRecipes[0].Count != 2 {
		t.Errorf("topRecipes = %+v", res.TopRecipes)
	}
	want := []string{"2 (x2)", "2 (x2)"}
	if !reflect.DeepEqual(res.IngredientUsage["Egg"], want) {
		t.Errorf("usage for Egg = %v, want %v", res.IngredientUsage["Egg"], want)
	}
}

func TestConsumptionDateWindowInclusive(t *testing.T) {
	recipes := []kitchendb.Recipe{{ID: "r1", Name: "Soup"}}
	plans := []kitchendb.MenuPlan{
		{Date: "2024-04-30", LunchRecipeIDs: []string{"r1"}},
		{Date: "2024-05-01", LunchRecipeIDs: []string{"r1"}},
		{Date: "2024-05-07", DinnerRecipeIDs: []string{"r1"}},
		{Date: "2024-05-08", LunchRecipeIDs: []string{"r1"}},
	}

	res := Consumption(plans, recipes, "2024-05-01", "2024-05-07")
	if res.TotalMeals != 2 {
		t.Errorf("totalMeals = %d, want 2 (boundary dates in, outside dates out)", res.TotalMeals)
	}
}

func TestConsumptionRanking(t *testing.T) {
	recipes := []kitchendb.Recipe{
		{ID: "r1", Name: "Soup"},
		{ID: "r2", Name: "Salad"},
		{ID: "r3", Name: "Stew"},
	}
	plans := []kitchendb.MenuPlan{
		{Date: "2024-05-01", LunchRecipeIDs: []string{"r1"}, DinnerRecipeIDs: []string{"r2"}},
		{Date: "2024-05-02", LunchRecipeIDs: []string{"r2"}, DinnerRecipeIDs: []string{"r3"}},
		{Date: "2024-05-03", DinnerRecipeIDs: []string{"r2"}},
	}

	res := Consumption(plans, recipes, "2024-05-01", "2024-05-07")
	if res.TotalMeals != 5 {
		t.Errorf("totalMeals = %d, want 5", res.TotalMeals)
	}
	got := make([]string, len(res.TopRecipes))
	for i, rc := range res.TopRecipes {
		got[i] = rc.Recipe.ID
	}
	// r2 leads with 3; r1 and r3 tie at 1 and keep encounter order.
	want := []string{"r2", "r1", "r3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranking = %v, want %v", got, want)
	}
}

func TestConsumptionDanglingRecipeID(t *testing.T) {
	plans := []kitchendb.MenuPlan{
		{Date: "2024-05-01", LunchRecipeIDs: []string{"gone"}},
	}

	res := Consumption(plans, nil, "2024-05-01", "2024-05-07")
	if res.TotalMeals != 1 {
		t.Errorf("totalMeals = %d, want 1 (slot still counts)", res.TotalMeals)
	}
	if len(res.TopRecipes) != 0 {
		t.Errorf("topRecipes = %+v, want none for unresolvable ID", res.TopRecipes)
	}
	if len(res.IngredientUsage) != 0 {
		t.Errorf("ingredientUsage = %v, want empty", res.IngredientUsage)
	}
}

func TestConsumptionEmptyWindow(t *testing.T) {
	res := Consumption(nil, nil, "2024-05-01", "2024-05-07")
	if res.TotalMeals != 0 || len(res.TopRecipes) != 0 || len(res.IngredientUsage) != 0 {
		t.Errorf("empty inputs produced %+v", res)
	}
}
