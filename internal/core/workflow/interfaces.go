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

// Package workflow assembles the pipeline commands into the two event-driven
// workflows of the system: transcription (video became active) and recipe
// generation (transcript became ready). Workflows are themselves commands,
// so the Pub/Sub listeners can drive them directly, and each also exposes an
// on-demand method for the API layer.
//
// This file declares the narrow dependencies the workflows are built
// against. The services package provides the Firestore-backed
// implementations; workflow tests substitute fakes.
package workflow

import (
	"context"
	"time"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// TranscriptStore is the transcript persistence surface the workflows need.
type TranscriptStore interface {
	// Get loads the transcript for a video; the boolean reports existence.
	Get(ctx context.Context, videoID string) (*model.TranscriptDocument, bool, error)

	// MarkProcessing atomically claims the transcript for processing,
	// returning model.ErrAlreadyProcessing when another run holds the claim.
	MarkProcessing(ctx context.Context, videoID string, now time.Time) error

	// SaveResult validates and writes the completed transcript snapshot.
	SaveResult(ctx context.Context, videoID string, doc *model.TranscriptDocument) error

	// SaveFailure records a terminal failure on the transcript document and
	// releases the processing claim.
	SaveFailure(ctx context.Context, videoID string, message string, now time.Time) error
}

// VideoStore is the video persistence surface the workflows need.
type VideoStore interface {
	// Get loads the video document; the boolean reports existence.
	Get(ctx context.Context, videoID string) (*model.VideoDocument, bool, error)

	// SaveRecipe merges the rendered recipe onto the video document.
	SaveRecipe(ctx context.Context, videoID string, markdown string, now time.Time) error

	// ResolveStreamURL exchanges a stored locator for a fetchable URL.
	ResolveStreamURL(locator string) (string, error)
}

// ErrorSink records unrecoverable pipeline failures for operators.
type ErrorSink interface {
	Record(ctx context.Context, rec *model.ErrorRecord) error
}

// Transcriber produces and persists the transcript for a video, returning
// the normalized result. MediaTranscriber is the production implementation.
type Transcriber interface {
	Transcribe(ctx context.Context, videoID string, streamURL string) (*model.TranscriptResult, error)
}

// RecipeComposer generates, parses, and persists a recipe from transcript
// text. RecipeChain is the production implementation.
type RecipeComposer interface {
	Compose(ctx context.Context, videoID string, transcriptText string) (*model.Recipe, error)
}
