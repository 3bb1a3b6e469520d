// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package assist

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/llm"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini is a Model backed by the Gemini API with structured output.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini returns a Gemini assistant, using the default model when
// model is empty.
func NewGemini(client *genai.Client, model string) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{client: client, model: model}
}

func (g *Gemini) ParseRecipe(ctx context.Context, text string) (*kitchendb.Recipe, error) {
	out, err := g.generate(ctx, llm.ParseRecipePrompt(), text, kitchendb.RecipeSchema)
	if err != nil {
		return nil, err
	}
	return decodeRecipe(out)
}

func (g *Gemini) SuggestRecipes(ctx context.Context, available []kitchendb.Ingredient) ([]kitchendb.RecipeSuggestion, error) {
	out, err := g.generate(ctx, "", llm.SuggestPrompt(available), kitchendb.SuggestionsSchema)
	if err != nil {
		return nil, err
	}
	return decodeSuggestions(out)
}

func (g *Gemini) generate(ctx context.Context, system, prompt string, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleModel)
	}

	res, err := backoff.Retry(ctx, func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		}, cfg)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
	if err != nil {
		return "", fmt.Errorf("assist: generating content: %w", err)
	}
	if len(res.Candidates) != 1 || len(res.Candidates[0].Content.Parts) != 1 || res.Candidates[0].Content.Parts[0].Text == "" {
		return "", fmt.Errorf("assist: unexpected response from generate ai: %v", res) //nolint:err113
	}
	return res.Candidates[0].Content.Parts[0].Text, nil
}
