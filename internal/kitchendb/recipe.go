// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package kitchendb

import "google.golang.org/genai"

// RecipeIngredient represents an ingredient line in a recipe.
type RecipeIngredient struct {
	// Name is the name of the ingredient, matched case-insensitively
	// against the pantry catalog.
	Name string `firestore:"name" json:"name"`

	// Quantity is the quantity of the ingredient as free-form text,
	// e.g. "200g" or "2 cloves". Intentionally unparsed.
	Quantity string `firestore:"quantity" json:"quantity"`
}

// Recipe represents a recipe in the catalog.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID string `firestore:"id" json:"id"`

	// Name is the name of the recipe. Uniqueness is advisory.
	Name string `firestore:"name" json:"name"`

	// Ingredients are the ingredient lines of the recipe, in order.
	Ingredients []RecipeIngredient `firestore:"ingredients" json:"ingredients"`

	// Steps are the instruction steps of the recipe, in order.
	Steps []string `firestore:"steps" json:"steps"`

	// Tags are free-form labels, e.g. "spicy", "quick", "dinner".
	Tags []string `firestore:"tags" json:"tags"`

	// PrepTime is the estimated preparation time as free-form text.
	PrepTime string `firestore:"prepTime" json:"prepTime,omitempty"`

	// Description is a short description of the recipe.
	Description string `firestore:"description" json:"description,omitempty"`

	// Image is the recipe image, either a data URL or a public URL.
	Image string `firestore:"image" json:"image,omitempty"`
}

// EnsureDefaults replaces nil collection fields with empty ones. AI and
// import payloads are untrusted and routinely omit arrays.
func (r *Recipe) EnsureDefaults() {
	if r.Ingredients == nil {
		r.Ingredients = []RecipeIngredient{}
	}
	if r.Steps == nil {
		r.Steps = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
}

// RecipeSuggestion is a dish suggestion derived from available stock.
type RecipeSuggestion struct {
	// Name is the name of the suggested dish.
	Name string `json:"name"`

	// Description is a short description of the dish.
	Description string `json:"description"`

	// MissingIngredients lists ingredients to buy, or "None".
	MissingIngredients string `json:"missingIngredients"`
}

var recipeIngredientsSchema = &genai.Schema{
	Type:        "array",
	Description: "A list of ingredient lines.",
	Items: &genai.Schema{
		Type:        "object",
		Description: "An ingredient line in the recipe.",
		Properties: map[string]*genai.Schema{
			"name": {
				Type:        "string",
				Description: "The name of the ingredient.",
			},
			"quantity": {
				Type:        "string",
				Description: "The quantity of the ingredient as free-form text, e.g. 200g.",
			},
		},
		Required: []string{"name", "quantity"},
	},
}

// RecipeSchema is the structured-output schema for recipe parsing.
var RecipeSchema = &genai.Schema{
	Type:        "object",
	Description: "A recipe.",
	Properties: map[string]*genai.Schema{
		"name": {
			Type:        "string",
			Description: "The name of the recipe.",
		},
		"description": {
			Type:        "string",
			Description: "A short description of the recipe.",
		},
		"prepTime": {
			Type:        "string",
			Description: "The estimated preparation time, e.g. 30 min.",
		},
		"ingredients": recipeIngredientsSchema,
		"steps": {
			Type:        "array",
			Description: "The instruction steps of the recipe.",
			Items: &genai.Schema{
				Type: "string",
			},
		},
		"tags": {
			Type:        "array",
			Description: "Relevant tags, e.g. Dinner, Italian, Spicy.",
			Items: &genai.Schema{
				Type: "string",
			},
		},
	},
	Required: []string{"name", "ingredients", "steps"},
}

// SuggestionsSchema is the structured-output schema for inventory-based
// dish suggestions.
var SuggestionsSchema = &genai.Schema{
	Type:        "array",
	Description: "Suggested dishes.",
	Items: &genai.Schema{
		Type:        "object",
		Description: "A suggested dish.",
		Properties: map[string]*genai.Schema{
			"name": {
				Type:        "string",
				Description: "The name of the dish.",
			},
			"description": {
				Type:        "string",
				Description: "A short description of the dish.",
			},
			"missingIngredients": {
				Type:        "string",
				Description: "Ingredients that need to be bought, or 'None'.",
			},
		},
		Required: []string{"name", "description", "missingIngredients"},
	},
}
