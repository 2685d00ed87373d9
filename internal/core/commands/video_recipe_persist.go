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

package commands

import (
	"context"
	"time"

	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// VideoRecipeSaver is the narrow persistence dependency of the recipe
// persist step. VideoService satisfies it; tests use fakes.
type VideoRecipeSaver interface {
	SaveRecipe(ctx context.Context, videoID string, markdown string, now time.Time) error
}

// VideoRecipePersist is the terminal command of the recipe chain. It renders
// the structured recipe to markdown and merges it onto the video document,
// flipping the hasRecipe marker that keeps the recipe from being generated
// twice.
type VideoRecipePersist struct {
	cor.BaseCommand
	saver VideoRecipeSaver
}

func NewVideoRecipePersist(name string, saver VideoRecipeSaver) *VideoRecipePersist {
	cmd := &VideoRecipePersist{BaseCommand: *cor.NewBaseCommand(name), saver: saver}
	cmd.InputParamName = RecipeOutputParam
	cmd.OutputParamName = RecipeOutputParam
	return cmd
}

func (c *VideoRecipePersist) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	recipe := context.Get(c.GetInputParam()).(*model.Recipe)
	videoID := context.Get(CtxVideoID).(string)

	markdown := FormatRecipeMarkdown(recipe)
	if err := c.saver.SaveRecipe(context.GetContext(), videoID, markdown, time.Now()); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
