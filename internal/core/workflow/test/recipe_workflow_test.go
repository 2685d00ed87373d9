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

package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
	"github.com/spoonfeed/recipe-pipeline/internal/core/workflow"
	testutil "github.com/spoonfeed/recipe-pipeline/internal/testutil"
)

// fakeErrorSink collects appended error records.
type fakeErrorSink struct {
	records []*model.ErrorRecord
	err     error
}

func (f *fakeErrorSink) Record(_ context.Context, rec *model.ErrorRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

// fakeComposer counts invocations, remembers the prompt text, and persists
// the rendered recipe the way the production chain does.
type fakeComposer struct {
	videos *fakeVideoStore
	recipe *model.Recipe
	err    error
	calls  int
	text   string
}

func (f *fakeComposer) Compose(ctx context.Context, videoID string, transcriptText string) (*model.Recipe, error) {
	f.calls++
	f.text = transcriptText
	if f.err != nil {
		return nil, f.err
	}
	if err := f.videos.SaveRecipe(ctx, videoID, "# "+f.recipe.Title, time.Now()); err != nil {
		return nil, err
	}
	return f.recipe, nil
}

func cannedRecipe() *model.Recipe {
	return &model.Recipe{
		Title:       "Simple Tomato Pasta",
		Ingredients: []string{"tomatoes", "garlic", "olive oil", "spaghetti"},
		Steps:       []string{"Boil the spaghetti.", "Fry the garlic."},
	}
}

// readyTranscript mirrors the after snapshot of the canned transcript-ready
// payload, since the workflow re-reads the store rather than trusting the
// event body.
func readyTranscript() *model.TranscriptDocument {
	return &model.TranscriptDocument{
		Segments: []model.TranscriptSegment{
			{Start: 0, End: 4200, Text: "Today we are making a simple tomato pasta.", Words: []model.Word{}, Keywords: []string{}},
			{Start: 4200, End: 9100, Text: "You will need tomatoes, garlic, olive oil and spaghetti.", Words: []model.Word{}, Keywords: []string{}},
		},
		Text:         "Today we are making a simple tomato pasta. You will need tomatoes, garlic, olive oil and spaghetti.",
		IsProcessing: false,
	}
}

func transcriptChangePayload(after string) string {
	return fmt.Sprintf(`{
		"collection": "transcripts",
		"documentId": "test-video-001",
		"before": {"segments": [], "isProcessing": true, "metadata": {}},
		"after": %s,
		"updateTime": "2025-04-11T03:09:45.100Z"
	}`, after)
}

type recipeFixture struct {
	transcripts *fakeTranscriptStore
	videos      *fakeVideoStore
	errorSink   *fakeErrorSink
	composer    *fakeComposer
	wf          *workflow.RecipeWorkflow
}

func newRecipeFixture() *recipeFixture {
	transcripts := newFakeTranscriptStore()
	videos := newFakeVideoStore()
	errorSink := &fakeErrorSink{}
	composer := &fakeComposer{videos: videos, recipe: cannedRecipe()}

	transcripts.docs["test-video-001"] = readyTranscript()
	videos.videos["test-video-001"] = &model.VideoDocument{
		Status:   model.StatusActive,
		VideoURL: "gs://cooking-videos/test-video-001.mp4",
	}

	return &recipeFixture{
		transcripts: transcripts,
		videos:      videos,
		errorSink:   errorSink,
		composer:    composer,
		wf:          workflow.NewRecipeWorkflow("recipe-workflow", transcripts, videos, errorSink, composer),
	}
}

// TestRecipeTriggersOnReadyTranscript runs the canned transcript-ready event
// and expects the composer to be called with the joined segment text.
func TestRecipeTriggersOnReadyTranscript(t *testing.T) {
	f := newRecipeFixture()

	chainCtx := executeWithPayload(f.wf, testutil.GetTestTranscriptReadyMessage())

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, f.composer.calls)
	assert.Equal(t,
		"Today we are making a simple tomato pasta. You will need tomatoes, garlic, olive oil and spaghetti.",
		f.composer.text)
	assert.Contains(t, f.videos.saved["test-video-001"], "Simple Tomato Pasta")
	assert.Empty(t, f.errorSink.records)
}

// TestRecipeGuardMatrix enumerates the transcript writes that must not
// start generation: processing markers, recorded failures, and empty
// transcripts.
func TestRecipeGuardMatrix(t *testing.T) {
	cases := []struct {
		name  string
		after string
	}{
		{"still processing", `{"segments": [], "isProcessing": true, "metadata": {}}`},
		{"recorded failure", `{"segments": [], "isProcessing": false, "error": "download timed out", "metadata": {}}`},
		{"empty transcript", `{"segments": [], "isProcessing": false, "metadata": {}}`},
		{"document deleted", `null`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRecipeFixture()

			chainCtx := executeWithPayload(f.wf, transcriptChangePayload(tc.after))

			assert.False(t, chainCtx.HasErrors())
			assert.Zero(t, f.composer.calls)
			assert.Empty(t, f.errorSink.records)
		})
	}
}

// TestRecipeSkipsVideoWithRecipe verifies the trigger path is idempotent: a
// redelivered ready event for a video that already has a recipe is acked
// without another completion call.
func TestRecipeSkipsVideoWithRecipe(t *testing.T) {
	f := newRecipeFixture()
	f.videos.videos["test-video-001"].HasRecipe = true

	chainCtx := executeWithPayload(f.wf, testutil.GetTestTranscriptReadyMessage())

	assert.False(t, chainCtx.HasErrors())
	assert.Zero(t, f.composer.calls)
	assert.Empty(t, f.errorSink.records)
}

// TestRecipeFailureAppendsErrorRecord verifies that a generation failure is
// recorded to the error sink with debugging context and the event is still
// acked, leaving the video document untouched.
func TestRecipeFailureAppendsErrorRecord(t *testing.T) {
	f := newRecipeFixture()
	f.composer.err = errors.New("completion rate limited")

	chainCtx := executeWithPayload(f.wf, testutil.GetTestTranscriptReadyMessage())

	assert.False(t, chainCtx.HasErrors())
	require.Len(t, f.errorSink.records, 1)

	rec := f.errorSink.records[0]
	assert.Equal(t, "recipe_generation_failure", rec.Type)
	assert.Equal(t, "test-video-001", rec.VideoID)
	assert.Contains(t, rec.Error, "completion rate limited")
	assert.Equal(t, 2, rec.Context["segmentCount"])
	assert.Equal(t, len(f.composer.text), rec.Context["totalTextLength"])
	assert.Empty(t, f.videos.saved)
}

// TestGenerateForVideoRegenerates verifies the on-demand path runs even when
// the video already has a recipe.
func TestGenerateForVideoRegenerates(t *testing.T) {
	f := newRecipeFixture()
	f.videos.videos["test-video-001"].HasRecipe = true

	recipe, err := f.wf.GenerateForVideo(context.Background(), "test-video-001")
	require.NoError(t, err)
	assert.Equal(t, cannedRecipe(), recipe)
	assert.Equal(t, 1, f.composer.calls)
}

// TestGenerateForVideoErrors covers the on-demand failure modes: missing
// documents and transcripts that are not ready.
func TestGenerateForVideoErrors(t *testing.T) {
	t.Run("missing transcript", func(t *testing.T) {
		f := newRecipeFixture()
		delete(f.transcripts.docs, "test-video-001")

		_, err := f.wf.GenerateForVideo(context.Background(), "test-video-001")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("missing video", func(t *testing.T) {
		f := newRecipeFixture()
		delete(f.videos.videos, "test-video-001")

		_, err := f.wf.GenerateForVideo(context.Background(), "test-video-001")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("transcript not ready", func(t *testing.T) {
		f := newRecipeFixture()
		f.transcripts.docs["test-video-001"] = &model.TranscriptDocument{IsProcessing: true}

		_, err := f.wf.GenerateForVideo(context.Background(), "test-video-001")
		require.Error(t, err)
		assert.Zero(t, f.composer.calls)
	})
}
