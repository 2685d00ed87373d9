// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a decorator around the OpenAI chat-completion client.
// The decorator adds rate limiting so the application stays inside the
// provider's request quota, and carries the model parameters (system prompt,
// temperature, token ceiling) so callers only supply the user content.
//
// Structs:
//   - QuotaAwareCompletionModel: Wraps the OpenAI client with a rate limiter
//     and a fixed model configuration.
//
// Functions:
//   - NewQuotaAwareCompletionModel: Constructor for the wrapper.
//   - CreateCompletion: Rate-limited chat-completion call.
package cloud

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// QuotaAwareCompletionModel is a decorator that pairs an OpenAI client with
// a rate limiter and a fixed model configuration. All completion traffic for
// one logical model (e.g. the recipe chef) goes through one instance, so the
// limiter governs the aggregate request rate.
type QuotaAwareCompletionModel struct {
	Client             *openai.Client // The underlying OpenAI API client.
	Model              string         // The provider model name (e.g. "gpt-4").
	SystemInstructions string         // The system prompt sent ahead of every request.
	Temperature        float32        // The sampling temperature for the model.
	MaxTokens          int            // The maximum number of tokens in the model output.
	RateLimit          *rate.Limiter  // Limiter controlling the request frequency.
}

// NewQuotaAwareCompletionModel creates a rate-limited completion model from
// its configuration. The limiter allows a burst of requestsPerSecond events
// and replenishes one token per second.
func NewQuotaAwareCompletionModel(client *openai.Client, cfg CompletionModel) *QuotaAwareCompletionModel {
	return &QuotaAwareCompletionModel{
		Client:             client,
		Model:              cfg.Model,
		SystemInstructions: cfg.SystemInstructions,
		Temperature:        cfg.Temperature,
		MaxTokens:          cfg.MaxTokens,
		RateLimit:          rate.NewLimiter(rate.Every(time.Second/1), cfg.RateLimit),
	}
}

// CreateCompletion executes a single chat-completion request with the wrapped
// model's parameters. It blocks until the rate limiter admits the request or
// the context is canceled. Retries are the caller's concern; see
// GenerateCompletion in utils.go.
func (q *QuotaAwareCompletionModel) CreateCompletion(ctx context.Context, userContent string) (openai.ChatCompletionResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return q.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       q.Model,
		Temperature: q.Temperature,
		MaxTokens:   q.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: q.SystemInstructions},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
	})
}
