// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package stats derives consumption views from menu plans and recipes.
package stats

import (
	"fmt"
	"sort"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

// RecipeCount pairs a recipe with how many meals it covered in the
// reporting window.
type RecipeCount struct {
	Recipe kitchendb.Recipe `json:"recipe"`
	Count  int              `json:"count"`
}

// Result is a consumption report.
type Result struct {
	// TotalMeals counts every recipe slot in every plan in the window,
	// including IDs that no longer resolve to a recipe.
	TotalMeals int `json:"totalMeals"`

	// TopRecipes ranks resolvable recipes by count, descending. Ties
	// keep first-encountered order.
	TopRecipes []RecipeCount `json:"topRecipes"`

	// IngredientUsage maps ingredient name to usage strings, one per
	// meal the ingredient appeared in. Each string reads
	// "<quantity> (x<count>)" where count is the recipe's total for the
	// whole window, not the single occurrence.
	IngredientUsage map[string][]string `json:"ingredientUsage"`
}

// Consumption reports what the kitchen cooked between startDate and
// endDate, inclusive. Dates are ISO YYYY-MM-DD strings, so plain
// string comparison orders them.
func Consumption(plans []kitchendb.MenuPlan, recipes []kitchendb.Recipe, startDate, endDate string) Result {
	byID := make(map[string]kitchendb.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	var inRange []kitchendb.MenuPlan
	for _, plan := range plans {
		if plan.Date >= startDate && plan.Date <= endDate {
			inRange = append(inRange, plan)
		}
	}

	res := Result{IngredientUsage: map[string][]string{}}
	counts := map[string]int{}
	var order []string
	for _, plan := range inRange {
		for _, id := range append(append([]string(nil), plan.LunchRecipeIDs...), plan.DinnerRecipeIDs...) {
			res.TotalMeals++
			if counts[id] == 0 {
				order = append(order, id)
			}
			counts[id]++
		}
	}

	for _, plan := range inRange {
		for _, id := range append(append([]string(nil), plan.LunchRecipeIDs...), plan.DinnerRecipeIDs...) {
			recipe, ok := byID[id]
			if !ok {
				continue
			}
			for _, line := range recipe.Ingredients {
				usage := fmt.Sprintf("%s (x%d)", line.Quantity, counts[id])
				res.IngredientUsage[line.Name] = append(res.IngredientUsage[line.Name], usage)
			}
		}
	}

	for _, id := range order {
		recipe, ok := byID[id]
		if !ok {
			continue
		}
		res.TopRecipes = append(res.TopRecipes, RecipeCount{Recipe: recipe, Count: counts[id]})
	}
	sort.SliceStable(res.TopRecipes, func(i, j int) bool {
		return res.TopRecipes[i].Count > res.TopRecipes[j].Count
	})
	return res
}
