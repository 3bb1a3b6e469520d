// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package assist calls a generative model to parse free-text recipes
// and suggest dishes from current stock. Model output is structured
// but untrusted; missing fields are defaulted before it reaches the
// engine.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

// Model is a generative assistant.
type Model interface {
	// ParseRecipe extracts a recipe from pasted text, or invents one
	// from a short request.
	ParseRecipe(ctx context.Context, text string) (*kitchendb.Recipe, error)

	// SuggestRecipes proposes dishes cookable from the available
	// ingredients.
	SuggestRecipes(ctx context.Context, available []kitchendb.Ingredient) ([]kitchendb.RecipeSuggestion, error)
}

// New selects a Model implementation by provider name.
func New(provider string, genAI *genai.Client, oai *openai.Client, model string) (Model, error) {
	switch provider {
	case "", "gemini":
		return NewGemini(genAI, model), nil
	case "openai":
		return NewOpenAI(oai, model), nil
	default:
		return nil, fmt.Errorf("assist: unsupported provider: %s", provider)
	}
}

func decodeRecipe(text string) (*kitchendb.Recipe, error) {
	var recipe kitchendb.Recipe
	if err := json.Unmarshal([]byte(stripFences(text)), &recipe); err != nil {
		return nil, fmt.Errorf("assist: failed to unmarshal recipe: %w", err)
	}
	if recipe.Name == "" {
		return nil, fmt.Errorf("assist: model returned recipe without a name") //nolint:err113
	}
	recipe.EnsureDefaults()
	return &recipe, nil
}

func decodeSuggestions(text string) ([]kitchendb.RecipeSuggestion, error) {
	var suggestions []kitchendb.RecipeSuggestion
	if err := json.Unmarshal([]byte(stripFences(text)), &suggestions); err != nil {
		return nil, fmt.Errorf("assist: failed to unmarshal suggestions: %w", err)
	}
	return suggestions, nil
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
