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

// Package commands_test contains unit tests for the pipeline commands. This
// file covers the recipe parser and the markdown renderer, including the
// round-trip property that lets a rendered recipe pass back through the
// parser unchanged.
package commands_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoonfeed/recipe-pipeline/internal/core/commands"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// TestParseRecipeTextFull parses a well-formed completion output with all
// recognized sections.
func TestParseRecipeTextFull(t *testing.T) {
	text := `Tomato Pasta

Ingredients:
- 2 tomatoes
- 1 clove garlic
* 200g spaghetti

Instructions:
1. Boil the spaghetti.
2. Fry the garlic.
3. Add the tomatoes.`

	recipe, err := commands.ParseRecipeText(text)
	require.NoError(t, err)

	assert.Equal(t, "Tomato Pasta", recipe.Title)
	assert.Equal(t, []string{"2 tomatoes", "1 clove garlic", "200g spaghetti"}, recipe.Ingredients)
	assert.Equal(t, []string{"Boil the spaghetti.", "Fry the garlic.", "Add the tomatoes."}, recipe.Steps)
}

// TestParseRecipeTextStripsTitleDecorations verifies that markdown heading
// markers and a "Title:" label are removed from the first line.
func TestParseRecipeTextStripsTitleDecorations(t *testing.T) {
	for _, first := range []string{"# Tomato Pasta", "## Title: Tomato Pasta", "Title: Tomato Pasta"} {
		recipe, err := commands.ParseRecipeText(first + "\n\nSteps:\n1. Cook.")
		require.NoError(t, err)
		assert.Equal(t, "Tomato Pasta", recipe.Title)
	}
}

// TestParseRecipeTextStepHeaderVariants accepts all the recognized step
// section names.
func TestParseRecipeTextStepHeaderVariants(t *testing.T) {
	for _, header := range []string{"Instructions", "Steps", "Directions:", "Method"} {
		recipe, err := commands.ParseRecipeText("Soup\n\n" + header + "\n1. Simmer.")
		require.NoError(t, err)
		require.Len(t, recipe.Steps, 1, "header %q", header)
		assert.Equal(t, "Simmer.", recipe.Steps[0])
	}
}

// TestParseRecipeTextNumberedFallback uses numbered lines anywhere in the
// text as steps when no step header exists.
func TestParseRecipeTextNumberedFallback(t *testing.T) {
	text := `Quick Salad

Just chop everything.
1. Chop the lettuce.
2. Add dressing.`

	recipe, err := commands.ParseRecipeText(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chop the lettuce.", "Add dressing."}, recipe.Steps)
	assert.Empty(t, recipe.Ingredients)
}

// TestParseRecipeTextMatchesSectionBody selects a section by its whole text,
// so a keyword buried in the body still marks the section.
func TestParseRecipeTextMatchesSectionBody(t *testing.T) {
	text := `Pasta

You will need:
the ingredients below
- Flour
- Water

Instructions:
1. Mix.`

	recipe, err := commands.ParseRecipeText(text)
	require.NoError(t, err)

	assert.Equal(t, "Pasta", recipe.Title)
	assert.Equal(t, []string{"the ingredients below", "Flour", "Water"}, recipe.Ingredients)
	assert.Equal(t, []string{"Mix."}, recipe.Steps)
}

// TestParseRecipeTextUsesFirstMatchingSection takes only the first section
// matching each keyword; later matches are ignored.
func TestParseRecipeTextUsesFirstMatchingSection(t *testing.T) {
	text := `Pasta

Ingredients:
- Flour

More ingredients:
- Water

Steps:
1. Mix.`

	recipe, err := commands.ParseRecipeText(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Flour"}, recipe.Ingredients)
	assert.Equal(t, []string{"Mix."}, recipe.Steps)
}

// TestParseRecipeTextDegradedInput shows that text with no recognizable
// sections still yields a recipe: title only, empty lists.
func TestParseRecipeTextDegradedInput(t *testing.T) {
	recipe, err := commands.ParseRecipeText("Mystery Dish\n\nSome prose about cooking with no structure at all.")
	require.NoError(t, err)

	assert.Equal(t, "Mystery Dish", recipe.Title)
	assert.Empty(t, recipe.Ingredients)
	assert.Empty(t, recipe.Steps)
}

// TestParseRecipeTextRequiresTitle rejects text whose first line strips
// down to nothing.
func TestParseRecipeTextRequiresTitle(t *testing.T) {
	_, err := commands.ParseRecipeText("##\n\nIngredients:\n- salt")
	var respErr *model.InvalidProviderResponseError
	assert.True(t, errors.As(err, &respErr))
}

// TestFormatRecipeMarkdownLayout checks the fixed rendering template,
// including the attribution footer.
func TestFormatRecipeMarkdownLayout(t *testing.T) {
	recipe := &model.Recipe{
		Title:       "Tomato Pasta",
		Ingredients: []string{"2 tomatoes"},
		Steps:       []string{"Boil.", "Serve."},
	}

	markdown := commands.FormatRecipeMarkdown(recipe)

	assert.True(t, strings.HasPrefix(markdown, "# Tomato Pasta\n"))
	assert.Contains(t, markdown, "## Ingredients\n- 2 tomatoes\n")
	assert.Contains(t, markdown, "## Instructions\n1. Boil.\n2. Serve.\n")
	assert.True(t, strings.HasSuffix(markdown, "---\n*This recipe was automatically generated from the video content*"))
}

// TestFormatRecipeMarkdownRestripsMarkers verifies that leftover heading and
// list markers on fields are stripped at render time instead of doubling up.
func TestFormatRecipeMarkdownRestripsMarkers(t *testing.T) {
	recipe := &model.Recipe{
		Title:       "# Pasta",
		Ingredients: []string{"- Flour", "* Water"},
		Steps:       []string{"- Mix well", "# Serve"},
	}

	markdown := commands.FormatRecipeMarkdown(recipe)

	assert.True(t, strings.HasPrefix(markdown, "# Pasta\n"))
	assert.Contains(t, markdown, "- Flour\n")
	assert.Contains(t, markdown, "- Water\n")
	assert.Contains(t, markdown, "1. Mix well\n")
	assert.Contains(t, markdown, "2. Serve\n")
	assert.NotContains(t, markdown, "# # ")
	assert.NotContains(t, markdown, "- - ")
	assert.NotContains(t, markdown, "- * ")
}

// TestRenderParseRoundTrip feeds rendered markdown back through the parser
// and expects the identical recipe, for both populated and empty lists.
func TestRenderParseRoundTrip(t *testing.T) {
	recipes := []*model.Recipe{
		{
			Title:       "Tomato Pasta",
			Ingredients: []string{"2 tomatoes", "1 clove garlic"},
			Steps:       []string{"Boil the spaghetti.", "Fry the garlic."},
		},
		{
			Title:       "Mystery Dish",
			Ingredients: []string{},
			Steps:       []string{},
		},
	}

	for _, recipe := range recipes {
		parsed, err := commands.ParseRecipeText(commands.FormatRecipeMarkdown(recipe))
		require.NoError(t, err)
		assert.Equal(t, recipe, parsed)
	}
}
