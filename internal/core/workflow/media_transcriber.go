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
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
	"github.com/spoonfeed/recipe-pipeline/internal/core/commands"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// MediaTranscriber runs the media acquisition chain: download the video to
// a scoped temp directory, extract the audio with ffmpeg, transcribe it,
// normalize the timings, and persist the finished document. Each call gets
// its own chain context, so the staging directory is removed on every exit
// path and concurrent transcriptions never share state.
type MediaTranscriber struct {
	chain cor.Chain
}

// NewMediaTranscriber assembles the acquisition chain. The chain object is
// built once and reused; all commands are stateless and safe for concurrent
// executions.
func NewMediaTranscriber(
	config *cloud.Config,
	openAIClient *openai.Client,
	speech cloud.SpeechModel,
	saver commands.TranscriptSaver,
) *MediaTranscriber {
	httpClient := &http.Client{
		Timeout: time.Duration(config.Media.DownloadTimeoutSeconds) * time.Second,
	}

	chain := cor.NewBaseChain("media-transcription")
	chain.AddCommand(commands.NewMediaToTempFile("media-download", httpClient))
	chain.AddCommand(commands.NewAudioExtractor("audio-extract", config.Media.FFMpegPath))
	chain.AddCommand(commands.NewAudioTranscriber("audio-transcribe", openAIClient, speech.Model, speech.Language))
	chain.AddCommand(commands.NewTranscriptNormalizer("transcript-normalize"))
	chain.AddCommand(commands.NewTranscriptPersist("transcript-persist", saver))

	return &MediaTranscriber{chain: chain}
}

// Transcribe executes the chain for one video and returns the normalized
// result. The first chain error is returned; by then nothing partial has
// been written, since persistence is the final step and writes one full
// snapshot.
func (t *MediaTranscriber) Transcribe(ctx context.Context, videoID string, streamURL string) (*model.TranscriptResult, error) {
	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.CtxVideoID, videoID)
	chainCtx.Add(cor.CtxIn, streamURL)

	t.chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for _, err := range chainCtx.GetErrors() {
			return nil, err
		}
	}

	result, ok := chainCtx.Get(commands.TranscriptOutputParam).(*model.TranscriptResult)
	if !ok {
		return nil, errors.New("transcription chain produced no result")
	}
	return result, nil
}
