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
	"log/slog"
	"strings"
	"time"

	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// acceptedLocatorPrefixes are the only video locator forms the pipeline
// will fetch. Anything else is ignored rather than failed, since client
// bugs should not poison the subscription.
var acceptedLocatorPrefixes = []string{
	"https://firebasestorage.googleapis.com/",
	"https://storage.googleapis.com/",
	"gs://",
}

// AcceptedLocator reports whether a stored video locator is one the
// pipeline is willing to fetch.
func AcceptedLocator(locator string) bool {
	for _, prefix := range acceptedLocatorPrefixes {
		if strings.HasPrefix(locator, prefix) {
			return true
		}
	}
	return false
}

// TranscriptionWorkflow reacts to video document changes. When a video
// transitions from uploading to active it claims the transcript document,
// runs the media acquisition chain, and leaves behind either a completed
// transcript or a recorded failure. It is a cor.Command so the video-updates
// listener can drive it, and it exposes GenerateOnDemand for the API.
//
// Once the processing claim is taken, the transcript document is the only
// error channel: the workflow never surfaces an error to the listener, so
// the message is acked and the terminal failure is not retried.
type TranscriptionWorkflow struct {
	cor.BaseCommand
	transcripts TranscriptStore
	videos      VideoStore
	transcriber Transcriber
}

func NewTranscriptionWorkflow(
	name string,
	transcripts TranscriptStore,
	videos VideoStore,
	transcriber Transcriber,
) *TranscriptionWorkflow {
	return &TranscriptionWorkflow{
		BaseCommand: *cor.NewBaseCommand(name),
		transcripts: transcripts,
		videos:      videos,
		transcriber: transcriber,
	}
}

// Execute handles one decoded video change event. Guard failures are
// silent no-ops: the event is simply not for this workflow. A failure
// before the processing claim is taken is surfaced as a chain error so
// Pub/Sub redelivers the message; after the claim, failures live on the
// transcript document and the message is acked.
func (c *TranscriptionWorkflow) Execute(context cor.Context) {
	ctx, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	event := context.Get(c.GetInputParam()).(*cloud.DocumentChangeNotification)
	before, after, err := event.VideoSnapshots()
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}

	// Only the uploading -> active transition starts transcription.
	if before == nil || after == nil ||
		before.Status != model.StatusUploading || after.Status != model.StatusActive {
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}

	if after.VideoURL == "" || !AcceptedLocator(after.VideoURL) {
		slog.Warn("skipping video with unusable locator",
			"videoId", event.DocumentID, "videoUrl", after.VideoURL)
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}

	_, err, claimed := c.run(ctx, event.DocumentID, after.VideoURL)
	if err != nil && !claimed {
		if errors.Is(err, model.ErrAlreadyProcessing) {
			// Another delivery of this event won the claim; nothing to do.
			c.GetSuccessCounter().Add(ctx, 1)
			return
		}
		// Claim never taken (e.g. the transaction failed); let the
		// subscription redeliver and retry.
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	if err != nil {
		slog.Error("transcription failed; failure recorded on transcript",
			"videoId", event.DocumentID, "error", err)
	}
	c.GetSuccessCounter().Add(ctx, 1)
}

// GenerateOnDemand runs the same pipeline for an explicit API request. The
// status-transition guard does not apply, but the locator rules and the
// processing claim do: a video already being transcribed is reported, not
// transcribed twice.
func (c *TranscriptionWorkflow) GenerateOnDemand(ctx context.Context, videoID string, videoURL string) (*model.TranscriptResult, error) {
	if videoID == "" {
		return nil, &model.ValidationError{Field: "videoId", Reason: "must not be empty"}
	}
	if videoURL == "" {
		return nil, &model.ValidationError{Field: "videoUrl", Reason: "must not be empty"}
	}
	if !AcceptedLocator(videoURL) {
		return nil, &model.ValidationError{Field: "videoUrl", Reason: "unsupported locator"}
	}

	result, err, _ := c.run(ctx, videoID, videoURL)
	return result, err
}

// run claims the transcript, resolves the locator, and executes the
// acquisition chain. The claimed return reports whether the processing flag
// was taken, which determines whether a failure has already been recorded
// on the transcript document.
func (c *TranscriptionWorkflow) run(ctx context.Context, videoID string, videoURL string) (result *model.TranscriptResult, err error, claimed bool) {
	if err := c.transcripts.MarkProcessing(ctx, videoID, time.Now()); err != nil {
		if errors.Is(err, model.ErrAlreadyProcessing) {
			slog.Info("transcript already processing; skipping", "videoId", videoID)
		}
		return nil, err, false
	}

	streamURL, err := c.videos.ResolveStreamURL(videoURL)
	if err != nil {
		return nil, c.fail(ctx, videoID, err), true
	}

	result, err = c.transcriber.Transcribe(ctx, videoID, streamURL)
	if err != nil {
		return nil, c.fail(ctx, videoID, err), true
	}
	return result, nil, true
}

// fail records the terminal failure on the transcript document. A failure
// of the recording write itself is joined in, since at that point the
// document may be stuck in the processing state until an operator or an
// on-demand run intervenes.
func (c *TranscriptionWorkflow) fail(ctx context.Context, videoID string, cause error) error {
	if saveErr := c.transcripts.SaveFailure(ctx, videoID, cause.Error(), time.Now()); saveErr != nil {
		slog.Error("failed to record transcription failure",
			"videoId", videoID, "error", saveErr)
		return errors.Join(cause, saveErr)
	}
	return cause
}
