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
// processing pipelines. This file recovers a structured recipe from the
// free-text completion output. The model is not asked for JSON, so the
// parser is a forgiving line-oriented grammar: blank lines delimit
// sections, the first line names the recipe, and well-known headers mark
// the ingredient and step sections. Text that matches no header still
// yields a usable recipe with empty lists; only a missing title is fatal.
//
// The parser and the markdown renderer in recipe_markdown.go are designed
// as a pair: parsing a rendered recipe reproduces the recipe, so feeding a
// previously generated description back through the pipeline is harmless.
package commands

import (
	"regexp"
	"strings"

	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// RecipeOutputParam is the context key the parser publishes the structured
// recipe under, as the terminal command of the recipe chain.
const RecipeOutputParam = "__RECIPE__"

var (
	// titleStripPattern removes markdown heading markers and an optional
	// "Title:" label from the recipe's first line.
	titleStripPattern = regexp.MustCompile(`(?i)^#*\s*(?:Title:\s*)?`)

	// listMarkerPattern removes a leading bullet or numbering from a list
	// line ("- ", "* ", "• ", "1. ", "2) ").
	listMarkerPattern = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)

	// numberedLinePattern identifies the numbered lines used as the step
	// fallback when no step header is present.
	numberedLinePattern = regexp.MustCompile(`^\d+\.\s`)

	// sectionSplitPattern separates the text into sections on blank lines.
	sectionSplitPattern = regexp.MustCompile(`\n\s*\n`)
)

// stepHeaderWords are the recognized names for the step section.
var stepHeaderWords = []string{"instructions", "steps", "directions", "method"}

// RecipeTextToStruct parses the completion output into a model.Recipe.
// Input: the raw recipe text. Output: a *model.Recipe under
// RecipeOutputParam.
type RecipeTextToStruct struct {
	cor.BaseCommand
}

func NewRecipeTextToStruct(name string) *RecipeTextToStruct {
	cmd := &RecipeTextToStruct{BaseCommand: *cor.NewBaseCommand(name)}
	cmd.OutputParamName = RecipeOutputParam
	return cmd
}

func (c *RecipeTextToStruct) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	text := context.Get(c.GetInputParam()).(string)
	recipe, err := ParseRecipeText(text)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	context.Add(c.GetOutputParam(), recipe)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}

// ParseRecipeText recovers a structured recipe from free text. The first
// non-empty line of the first section is the title. The first section whose
// text mentions "ingredients" anywhere contributes ingredient lines (minus
// its leading header line); the first section mentioning one of the step
// header words contributes steps the same way. When no step section exists,
// numbered lines anywhere in the text are used as steps instead. Empty
// ingredient or step lists are valid output.
func ParseRecipeText(text string) (*model.Recipe, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &model.InvalidProviderResponseError{Reason: "recipe text is empty"}
	}
	sections := sectionSplitPattern.Split(trimmed, -1)

	recipe := &model.Recipe{
		Ingredients: []string{},
		Steps:       []string{},
	}
	if first := nonEmptyLines(sections[0]); len(first) > 0 {
		recipe.Title = strings.TrimSpace(titleStripPattern.ReplaceAllString(first[0], ""))
	}
	if recipe.Title == "" {
		return nil, &model.InvalidProviderResponseError{Reason: "recipe text has no title"}
	}

	// Sections are selected by their whole text, not just the header line,
	// and only the first match of each kind contributes.
	if section, ok := findSection(sections, func(s string) bool { return strings.Contains(s, "ingredients") }); ok {
		if lines := nonEmptyLines(section); len(lines) > 1 {
			recipe.Ingredients = stripListMarkers(lines[1:])
		}
	}
	if section, ok := findSection(sections, hasStepKeyword); ok {
		if lines := nonEmptyLines(section); len(lines) > 1 {
			recipe.Steps = stripListMarkers(lines[1:])
		}
	}

	// Fallback: no recognizable step section, so any numbered line in the
	// whole text is treated as a step.
	if len(recipe.Steps) == 0 {
		for _, section := range sections {
			for _, line := range nonEmptyLines(section) {
				if numberedLinePattern.MatchString(line) {
					recipe.Steps = append(recipe.Steps, listMarkerPattern.ReplaceAllString(line, ""))
				}
			}
		}
	}

	return recipe, nil
}

// findSection returns the first section whose lowercased text satisfies match.
func findSection(sections []string, match func(string) bool) (string, bool) {
	for _, section := range sections {
		if match(strings.ToLower(section)) {
			return section, true
		}
	}
	return "", false
}

func hasStepKeyword(section string) bool {
	for _, word := range stepHeaderWords {
		if strings.Contains(section, word) {
			return true
		}
	}
	return false
}

func nonEmptyLines(section string) []string {
	var lines []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func stripListMarkers(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(listMarkerPattern.ReplaceAllString(line, ""))
		if stripped != "" {
			out = append(out, stripped)
		}
	}
	return out
}
