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
	"fmt"
	"log/slog"
	"strings"

	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// recipeFailureType is the type field of error records written when recipe
// generation fails.
const recipeFailureType = "recipe_generation_failure"

// RecipeWorkflow reacts to transcript document changes. When a transcript
// reaches its ready state (not processing, no error, segments present) and
// the video does not have a recipe yet, it runs the recipe chain. Failures
// are appended to the errors collection and the event is acked; the video
// document stays untouched so a later on-demand request can try again.
type RecipeWorkflow struct {
	cor.BaseCommand
	transcripts TranscriptStore
	videos      VideoStore
	errors      ErrorSink
	composer    RecipeComposer
}

func NewRecipeWorkflow(
	name string,
	transcripts TranscriptStore,
	videos VideoStore,
	errorSink ErrorSink,
	composer RecipeComposer,
) *RecipeWorkflow {
	return &RecipeWorkflow{
		BaseCommand: *cor.NewBaseCommand(name),
		transcripts: transcripts,
		videos:      videos,
		errors:      errorSink,
		composer:    composer,
	}
}

// Execute handles one decoded transcript change event.
func (c *RecipeWorkflow) Execute(context cor.Context) {
	ctx, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	event := context.Get(c.GetInputParam()).(*cloud.DocumentChangeNotification)
	_, after, err := event.TranscriptSnapshots()
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}

	// Only a ready transcript is actionable. Processing markers, recorded
	// failures, and empty transcripts are all normal writes to observe and
	// skip.
	if after == nil || after.IsProcessing || after.Error != "" || len(after.Segments) == 0 {
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}

	if _, err := c.generate(ctx, event.DocumentID, true); err != nil {
		c.recordFailure(ctx, event.DocumentID, after, err)
	}
	c.GetSuccessCounter().Add(ctx, 1)
}

// GenerateForVideo runs recipe generation for an explicit API request. An
// existing recipe is regenerated rather than guarded, since the request is
// a deliberate ask to redo the work.
func (c *RecipeWorkflow) GenerateForVideo(ctx context.Context, videoID string) (*model.Recipe, error) {
	return c.generate(ctx, videoID, false)
}

// generate re-reads the transcript and video so that trigger deliveries and
// on-demand calls act on current state, then runs the recipe chain. When
// skipExisting is set, a video that already has a recipe is a silent no-op.
func (c *RecipeWorkflow) generate(ctx context.Context, videoID string, skipExisting bool) (*model.Recipe, error) {
	transcript, found, err := c.transcripts.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("transcript for video %s: %w", videoID, model.ErrNotFound)
	}
	if transcript.IsProcessing || transcript.Error != "" || len(transcript.Segments) == 0 {
		return nil, fmt.Errorf("transcript for video %s is not ready for recipe generation", videoID)
	}

	video, found, err := c.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("video %s: %w", videoID, model.ErrNotFound)
	}
	if skipExisting && video.HasRecipe {
		slog.Info("video already has a recipe; skipping", "videoId", videoID)
		return nil, nil
	}

	return c.composer.Compose(ctx, videoID, joinSegmentText(transcript.Segments))
}

// recordFailure appends an error record with enough context to debug the
// generation without replaying it. Recording is best effort; a failed
// append is only logged.
func (c *RecipeWorkflow) recordFailure(ctx context.Context, videoID string, transcript *model.TranscriptDocument, cause error) {
	slog.Error("recipe generation failed", "videoId", videoID, "error", cause)

	rec := model.NewErrorRecord(recipeFailureType, videoID, cause)
	rec.Context["segmentCount"] = len(transcript.Segments)
	rec.Context["totalTextLength"] = len(joinSegmentText(transcript.Segments))
	if err := c.errors.Record(ctx, rec); err != nil {
		slog.Error("failed to append error record", "videoId", videoID, "error", err)
	}
}

// joinSegmentText flattens the transcript's segments into the single prompt
// string sent to the completion model.
func joinSegmentText(segments []model.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, " ")
}
