// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"fmt"
	"strings"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

func ParseRecipePrompt() string {
	return parseRecipePrompt
}

const parseRecipePrompt = `You help users capture recipes into their kitchen organizer. The user provides free text,
which is either a pasted recipe to extract or a short request for a dish to invent. Either way, respond with a
complete recipe. Keep ingredient names simple, singular pantry staples (e.g. "Egg", not "2 large free-range eggs"),
putting amounts into the quantity field. Write the recipe in the language of the user's text.
`

func SuggestPrompt(available []kitchendb.Ingredient) string {
	names := make([]string, len(available))
	for i, ing := range available {
		names[i] = ing.Name
	}
	return fmt.Sprintf(suggestPrompt, strings.Join(names, ", "))
}

const suggestPrompt = `You help users decide what to cook from what they already have. The ingredients currently in
stock are: %s.

Suggest around three dishes that mostly use these ingredients. For each one, list only the ingredients that are NOT
in stock as missing. Prefer suggestions with few or no missing ingredients.
`
