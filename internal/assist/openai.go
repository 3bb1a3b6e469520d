// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package assist

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/llm"
)

const defaultOpenAIModel = "gpt-4o-mini"

// jsonOnly is appended to every instruction since chat completions
// have no schema enforcement comparable to Gemini's structured output.
const jsonOnly = "\nRespond with only the JSON document, no prose and no markdown fences."

// OpenAI is a Model backed by the OpenAI chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns an OpenAI assistant, using the default model when
// model is empty.
func NewOpenAI(client *openai.Client, model string) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: client, model: model}
}

func (o *OpenAI) ParseRecipe(ctx context.Context, text string) (*kitchendb.Recipe, error) {
	system := llm.ParseRecipePrompt() +
		"\nRespond with a JSON object with keys name, description, prepTime, ingredients" +
		" (objects with name and quantity), steps (strings), and tags (strings)." + jsonOnly
	out, err := o.complete(ctx, system, text)
	if err != nil {
		return nil, err
	}
	return decodeRecipe(out)
}

func (o *OpenAI) SuggestRecipes(ctx context.Context, available []kitchendb.Ingredient) ([]kitchendb.RecipeSuggestion, error) {
	prompt := llm.SuggestPrompt(available) +
		"\nRespond with a JSON array of objects with keys name, description, and missingIngredients" +
		" (a string, 'None' when nothing is missing)." + jsonOnly
	out, err := o.complete(ctx, "", prompt)
	if err != nil {
		return nil, err
	}
	return decodeSuggestions(out)
}

func (o *OpenAI) complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	res, err := backoff.Retry(ctx, func() (*openai.ChatCompletion, error) {
		return o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(o.model),
			Messages: messages,
		})
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
	if err != nil {
		return "", fmt.Errorf("assist: completing chat: %w", err)
	}
	if len(res.Choices) == 0 || res.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("assist: unexpected response from chat api: %v", res) //nolint:err113
	}
	return res.Choices[0].Message.Content, nil
}
