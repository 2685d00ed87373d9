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
// processing pipelines. This file defines the speech-to-text step: sending
// the extracted audio to the provider and mapping the verbose response into
// the pipeline's own raw-transcription shape.
package commands

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// AudioTranscriber submits the extracted audio file to the provider's
// transcription endpoint, requesting verbose JSON with both word and
// segment timestamp granularities. Input: the mp3 path. Output: a
// *model.WhisperResponse.
type AudioTranscriber struct {
	cor.BaseCommand
	client   *openai.Client
	model    string
	language string
}

func NewAudioTranscriber(name string, client *openai.Client, model string, language string) *AudioTranscriber {
	return &AudioTranscriber{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		model:       model,
		language:    language,
	}
}

func (c *AudioTranscriber) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	audioPath := context.Get(c.GetInputParam()).(string)

	resp, err := c.client.CreateTranscription(context.GetContext(), openai.AudioRequest{
		Model:    c.model,
		FilePath: audioPath,
		Language: c.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.ProviderError{Provider: "openai", Err: err})
		return
	}
	if resp.Text == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.InvalidProviderResponseError{Reason: "transcription returned no text"})
		return
	}

	context.Add(c.GetOutputParam(), MapWhisperResponse(&resp))
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}

// MapWhisperResponse converts the SDK's verbose transcription response into
// the pipeline's raw shape. The provider reports word timings as one flat
// top-level list, so each word is bucketed into the segment whose time span
// contains its start; words before the first segment's span land in the
// first segment, words past the last segment's span in the last.
func MapWhisperResponse(resp *openai.AudioResponse) *model.WhisperResponse {
	out := &model.WhisperResponse{
		Text:     resp.Text,
		Segments: make([]model.WhisperSegment, 0, len(resp.Segments)),
	}

	for _, seg := range resp.Segments {
		out.Segments = append(out.Segments, model.WhisperSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	for _, w := range resp.Words {
		idx := -1
		for i := range out.Segments {
			if w.Start >= out.Segments[i].Start && w.Start < out.Segments[i].End {
				idx = i
				break
			}
		}
		if idx < 0 {
			if len(out.Segments) == 0 {
				continue
			}
			if w.Start < out.Segments[0].Start {
				idx = 0
			} else {
				idx = len(out.Segments) - 1
			}
		}
		out.Segments[idx].Words = append(out.Segments[idx].Words, model.WhisperWord{
			Word:  w.Word,
			Start: w.Start,
			End:   w.End,
		})
	}

	return out
}
