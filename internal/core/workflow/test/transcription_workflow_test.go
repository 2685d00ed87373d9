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

// Package workflow_test contains unit tests for the pipeline workflows,
// run against in-memory fakes of the stores and providers. This file
// covers the transcription workflow: the trigger guards, the processing
// claim that makes concurrent deliveries idempotent, and the failure path
// that records errors on the transcript document.
package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoonfeed/recipe-pipeline/internal/core/commands"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
	"github.com/spoonfeed/recipe-pipeline/internal/core/workflow"
	testutil "github.com/spoonfeed/recipe-pipeline/internal/testutil"
)

// fakeTranscriptStore is an in-memory TranscriptStore tracking calls.
type fakeTranscriptStore struct {
	docs         map[string]*model.TranscriptDocument
	markErr      error
	markCalls    int
	saveCalls    int
	failureCalls int
	failures     map[string]string
}

func newFakeTranscriptStore() *fakeTranscriptStore {
	return &fakeTranscriptStore{
		docs:     make(map[string]*model.TranscriptDocument),
		failures: make(map[string]string),
	}
}

func (f *fakeTranscriptStore) Get(_ context.Context, videoID string) (*model.TranscriptDocument, bool, error) {
	doc, ok := f.docs[videoID]
	return doc, ok, nil
}

func (f *fakeTranscriptStore) MarkProcessing(_ context.Context, videoID string, _ time.Time) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	if doc, ok := f.docs[videoID]; ok && doc.IsProcessing {
		return model.ErrAlreadyProcessing
	}
	f.docs[videoID] = &model.TranscriptDocument{IsProcessing: true}
	return nil
}

func (f *fakeTranscriptStore) SaveResult(_ context.Context, videoID string, doc *model.TranscriptDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	f.saveCalls++
	f.docs[videoID] = doc
	return nil
}

func (f *fakeTranscriptStore) SaveFailure(_ context.Context, videoID string, message string, _ time.Time) error {
	f.failureCalls++
	f.failures[videoID] = message
	f.docs[videoID] = &model.TranscriptDocument{IsProcessing: false, Error: message}
	return nil
}

// fakeVideoStore resolves locators verbatim and tracks recipe saves.
type fakeVideoStore struct {
	videos     map[string]*model.VideoDocument
	resolveErr error
	saved      map[string]string
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{
		videos: make(map[string]*model.VideoDocument),
		saved:  make(map[string]string),
	}
}

func (f *fakeVideoStore) Get(_ context.Context, videoID string) (*model.VideoDocument, bool, error) {
	doc, ok := f.videos[videoID]
	return doc, ok, nil
}

func (f *fakeVideoStore) SaveRecipe(_ context.Context, videoID string, markdown string, _ time.Time) error {
	f.saved[videoID] = markdown
	return nil
}

func (f *fakeVideoStore) ResolveStreamURL(locator string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return locator, nil
}

// fakeTranscriber counts invocations and returns a canned result. The
// production implementation persists before returning, so the fake saves
// into the store the same way.
type fakeTranscriber struct {
	store  *fakeTranscriptStore
	result *model.TranscriptResult
	err    error
	calls  int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, videoID string, _ string) (*model.TranscriptResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	doc := model.NewCompletedTranscript(f.result.Segments, f.result.Text, time.Now())
	if err := f.store.SaveResult(ctx, videoID, doc); err != nil {
		return nil, err
	}
	return f.result, nil
}

func cannedResult() *model.TranscriptResult {
	return &model.TranscriptResult{
		Segments: []model.TranscriptSegment{
			{Start: 0, End: 4200, Text: "Today we are making pasta.", Words: []model.Word{}, Keywords: []string{}},
		},
		Text: "Today we are making pasta.",
	}
}

// executeWithPayload runs a payload through the same reader+workflow chain
// the Pub/Sub listener uses and returns the chain context for inspection.
func executeWithPayload(wf cor.Command, payload string) cor.Context {
	chain := cor.NewBaseChain("test-listener")
	chain.AddCommand(commands.NewChangeEventReader("test-reader"))
	chain.AddCommand(wf)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, payload)
	chain.Execute(chainCtx)
	return chainCtx
}

func videoChangePayload(beforeStatus, afterStatus, videoURL string) string {
	return fmt.Sprintf(`{
		"collection": "videos",
		"documentId": "video-1",
		"before": {"status": %q, "videoUrl": "", "hasRecipe": false},
		"after": {"status": %q, "videoUrl": %q, "hasRecipe": false},
		"updateTime": "2025-04-11T03:04:08.672Z"
	}`, beforeStatus, afterStatus, videoURL)
}

// TestTranscriptionTriggersOnActivation runs the canned activation event
// end to end against fakes and expects a persisted transcript.
func TestTranscriptionTriggersOnActivation(t *testing.T) {
	transcripts := newFakeTranscriptStore()
	transcriber := &fakeTranscriber{store: transcripts, result: cannedResult()}
	wf := workflow.NewTranscriptionWorkflow("transcription-workflow", transcripts, newFakeVideoStore(), transcriber)

	chainCtx := executeWithPayload(wf, testutil.GetTestVideoActivationMessage())

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, transcriber.calls)
	doc, found, _ := transcripts.Get(context.Background(), "test-video-001")
	require.True(t, found)
	assert.False(t, doc.IsProcessing)
	assert.NotEmpty(t, doc.Segments)
}

// TestTranscriptionGuardMatrix enumerates the deliveries that must be
// silent no-ops: wrong status transitions and unusable locators.
func TestTranscriptionGuardMatrix(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not a transition", videoChangePayload("active", "active", "gs://bucket/video.mp4")},
		{"still uploading", videoChangePayload("uploading", "uploading", "gs://bucket/video.mp4")},
		{"missing url", videoChangePayload("uploading", "active", "")},
		{"unsupported locator", videoChangePayload("uploading", "active", "https://example.com/video.mp4")},
		{"created document", `{"collection": "videos", "documentId": "video-1", "after": {"status": "active", "videoUrl": "gs://b/v.mp4"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transcripts := newFakeTranscriptStore()
			transcriber := &fakeTranscriber{store: transcripts, result: cannedResult()}
			wf := workflow.NewTranscriptionWorkflow("transcription-workflow", transcripts, newFakeVideoStore(), transcriber)

			chainCtx := executeWithPayload(wf, tc.payload)

			assert.False(t, chainCtx.HasErrors())
			assert.Zero(t, transcriber.calls)
			assert.Zero(t, transcripts.markCalls)
		})
	}
}

// TestTranscriptionIdempotentUnderRedelivery delivers the same activation
// twice. The second delivery loses the processing claim and must not run
// the transcriber again, and must still ack (no chain errors).
func TestTranscriptionIdempotentUnderRedelivery(t *testing.T) {
	transcripts := newFakeTranscriptStore()
	// Hold the claim open by never completing: the transcriber leaves the
	// document processing.
	transcriber := &fakeTranscriber{store: transcripts, result: cannedResult()}
	transcripts.docs["test-video-001"] = &model.TranscriptDocument{IsProcessing: true}

	wf := workflow.NewTranscriptionWorkflow("transcription-workflow", transcripts, newFakeVideoStore(), transcriber)

	chainCtx := executeWithPayload(wf, testutil.GetTestVideoActivationMessage())

	assert.False(t, chainCtx.HasErrors())
	assert.Zero(t, transcriber.calls)
}

// TestTranscriptionFailureRecordedOnDocument verifies the terminal failure
// contract: the error lands on the transcript document, the processing flag
// is released, and the listener still acks.
func TestTranscriptionFailureRecordedOnDocument(t *testing.T) {
	transcripts := newFakeTranscriptStore()
	transcriber := &fakeTranscriber{store: transcripts, err: errors.New("download timed out")}
	wf := workflow.NewTranscriptionWorkflow("transcription-workflow", transcripts, newFakeVideoStore(), transcriber)

	chainCtx := executeWithPayload(wf, testutil.GetTestVideoActivationMessage())

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, transcripts.failureCalls)
	assert.Equal(t, "download timed out", transcripts.failures["test-video-001"])

	doc, found, _ := transcripts.Get(context.Background(), "test-video-001")
	require.True(t, found)
	assert.False(t, doc.IsProcessing)
	assert.NotEmpty(t, doc.Error)
}

// TestTranscriptionInfraErrorRedelivers verifies that a failure before the
// claim is taken surfaces as a chain error, leaving the message unacked.
func TestTranscriptionInfraErrorRedelivers(t *testing.T) {
	transcripts := newFakeTranscriptStore()
	transcripts.markErr = errors.New("transaction aborted")
	transcriber := &fakeTranscriber{store: transcripts, result: cannedResult()}
	wf := workflow.NewTranscriptionWorkflow("transcription-workflow", transcripts, newFakeVideoStore(), transcriber)

	chainCtx := executeWithPayload(wf, testutil.GetTestVideoActivationMessage())

	assert.True(t, chainCtx.HasErrors())
	assert.Zero(t, transcriber.calls)
}

// TestGenerateOnDemandValidation covers the argument checks of the
// on-demand path.
func TestGenerateOnDemandValidation(t *testing.T) {
	transcripts := newFakeTranscriptStore()
	transcriber := &fakeTranscriber{store: transcripts, result: cannedResult()}
	wf := workflow.NewTranscriptionWorkflow("transcription-workflow", transcripts, newFakeVideoStore(), transcriber)

	cases := []struct {
		name     string
		videoID  string
		videoURL string
	}{
		{"missing video id", "", "gs://bucket/video.mp4"},
		{"missing url", "video-1", ""},
		{"unsupported locator", "video-1", "ftp://example.com/video.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := wf.GenerateOnDemand(context.Background(), tc.videoID, tc.videoURL)
			var validationErr *model.ValidationError
			assert.True(t, errors.As(err, &validationErr))
		})
	}
}

// TestGenerateOnDemandRunsPipeline checks that the on-demand path skips the
// status guard but still claims the document and returns the result.
func TestGenerateOnDemandRunsPipeline(t *testing.T) {
	transcripts := newFakeTranscriptStore()
	transcriber := &fakeTranscriber{store: transcripts, result: cannedResult()}
	wf := workflow.NewTranscriptionWorkflow("transcription-workflow", transcripts, newFakeVideoStore(), transcriber)

	result, err := wf.GenerateOnDemand(context.Background(), "video-1", "gs://bucket/video.mp4")
	require.NoError(t, err)
	assert.Equal(t, cannedResult(), result)

	// A second call while the first document is completed reclaims and
	// reruns; a call while processing reports the conflict.
	transcripts.docs["video-1"].IsProcessing = true
	_, err = wf.GenerateOnDemand(context.Background(), "video-1", "gs://bucket/video.mp4")
	assert.ErrorIs(t, err, model.ErrAlreadyProcessing)
}

// TestAcceptedLocator pins the accepted locator prefixes.
func TestAcceptedLocator(t *testing.T) {
	assert.True(t, workflow.AcceptedLocator("gs://bucket/video.mp4"))
	assert.True(t, workflow.AcceptedLocator("https://storage.googleapis.com/bucket/video.mp4"))
	assert.True(t, workflow.AcceptedLocator("https://firebasestorage.googleapis.com/v0/b/x/o/y"))
	assert.False(t, workflow.AcceptedLocator("https://example.com/video.mp4"))
	assert.False(t, workflow.AcceptedLocator("file:///tmp/video.mp4"))
}
