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
	"fmt"
	"regexp"
	"strings"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// recipeAttribution is the fixed footer appended to every rendered recipe.
const recipeAttribution = "*This recipe was automatically generated from the video content*"

// Rendering strips any leading markers still present on a field so that the
// emitted markdown never doubles them up.
var (
	renderTitleStripPattern = regexp.MustCompile(`^#*\s*`)
	renderItemStripPattern  = regexp.MustCompile(`^[-#*]\s*`)
	renderStepStripPattern  = regexp.MustCompile(`^[-#*\d.]\s*`)
)

// FormatRecipeMarkdown renders a recipe as the markdown stored in the video
// document's description. The layout is fixed: title heading, ingredient
// bullets, numbered instructions, and the attribution footer. Section
// headers are always emitted, even for empty lists, so a rendered recipe
// parses back to the same structure.
func FormatRecipeMarkdown(recipe *model.Recipe) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# %s\n\n", renderTitleStripPattern.ReplaceAllString(recipe.Title, "")))

	b.WriteString("## Ingredients\n")
	for _, ingredient := range recipe.Ingredients {
		b.WriteString(fmt.Sprintf("- %s\n", renderItemStripPattern.ReplaceAllString(ingredient, "")))
	}
	b.WriteString("\n")

	b.WriteString("## Instructions\n")
	for i, step := range recipe.Steps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, renderStepStripPattern.ReplaceAllString(step, "")))
	}
	b.WriteString("\n")

	b.WriteString("---\n")
	b.WriteString(recipeAttribution)

	return b.String()
}
