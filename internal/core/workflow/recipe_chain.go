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

package workflow

import (
	"context"
	"errors"

	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
	"github.com/spoonfeed/recipe-pipeline/internal/core/commands"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// RecipeChain runs the recipe generation chain: transcript text through the
// chef completion model, the heuristic parser, and the video document
// update. The whole chain either completes or leaves the video untouched,
// since the persist step runs last.
type RecipeChain struct {
	chain cor.Chain
}

func NewRecipeChain(completionModel *cloud.QuotaAwareCompletionModel, saver commands.VideoRecipeSaver) *RecipeChain {
	chain := cor.NewBaseChain("recipe-generation")
	chain.AddCommand(commands.NewRecipeGenerator("recipe-completion", completionModel))
	chain.AddCommand(commands.NewRecipeTextToStruct("recipe-parse"))
	chain.AddCommand(commands.NewVideoRecipePersist("recipe-persist", saver))
	return &RecipeChain{chain: chain}
}

// Compose generates and persists the recipe for one video, returning the
// structured form for on-demand callers.
func (r *RecipeChain) Compose(ctx context.Context, videoID string, transcriptText string) (*model.Recipe, error) {
	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.CtxVideoID, videoID)
	chainCtx.Add(cor.CtxIn, transcriptText)

	r.chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for _, err := range chainCtx.GetErrors() {
			return nil, err
		}
	}

	recipe, ok := chainCtx.Get(commands.RecipeOutputParam).(*model.Recipe)
	if !ok {
		return nil, errors.New("recipe chain produced no result")
	}
	return recipe, nil
}
