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

// Package commands contains the individual, reusable units of work for the
// processing pipelines. This file defines the completion step that turns a
// full transcript into free-text recipe prose. The model carries the fixed
// chef system prompt; this command only supplies the transcript as the user
// message and accounts for token usage.
package commands

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// RecipeGenerator sends the joined transcript text to the rate-limited
// completion model. Input: the full transcript text. Output: the model's raw
// recipe prose.
type RecipeGenerator struct {
	cor.BaseCommand
	completionModel    *cloud.QuotaAwareCompletionModel
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

func NewRecipeGenerator(name string, completionModel *cloud.QuotaAwareCompletionModel) *RecipeGenerator {
	cmd := &RecipeGenerator{
		BaseCommand:     *cor.NewBaseCommand(name),
		completionModel: completionModel,
	}
	cmd.inputTokenCounter, _ = cmd.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	cmd.outputTokenCounter, _ = cmd.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	cmd.retryCounter, _ = cmd.GetMeter().Int64Counter(fmt.Sprintf("%s.retries", name))
	return cmd
}

func (c *RecipeGenerator) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	transcript := context.Get(c.GetInputParam()).(string)

	text, err := cloud.GenerateCompletion(
		context.GetContext(),
		c.inputTokenCounter,
		c.outputTokenCounter,
		c.retryCounter,
		0,
		c.completionModel,
		transcript)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.ProviderError{Provider: "openai", Err: err})
		return
	}
	if text == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.ProviderError{Provider: "openai", Err: errors.New("completion returned empty text")})
		return
	}

	context.Add(c.GetOutputParam(), text)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
