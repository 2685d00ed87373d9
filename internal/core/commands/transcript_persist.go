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
	"context"
	"time"

	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// TranscriptSaver is the narrow persistence dependency of the transcript
// persist step. TranscriptService satisfies it; tests use fakes.
type TranscriptSaver interface {
	SaveResult(ctx context.Context, videoID string, doc *model.TranscriptDocument) error
}

// TranscriptPersist is the terminal command of the transcription chain. It
// assembles the completed transcript document from the normalized result and
// writes it as one full snapshot. Validation happens inside SaveResult, so
// a malformed document aborts the chain with nothing written.
type TranscriptPersist struct {
	cor.BaseCommand
	saver TranscriptSaver
}

func NewTranscriptPersist(name string, saver TranscriptSaver) *TranscriptPersist {
	cmd := &TranscriptPersist{BaseCommand: *cor.NewBaseCommand(name), saver: saver}
	cmd.InputParamName = TranscriptOutputParam
	cmd.OutputParamName = TranscriptOutputParam
	return cmd
}

func (c *TranscriptPersist) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	result := context.Get(c.GetInputParam()).(*model.TranscriptResult)
	videoID := context.Get(CtxVideoID).(string)

	doc := model.NewCompletedTranscript(result.Segments, result.Text, time.Now())
	if err := c.saver.SaveResult(context.GetContext(), videoID, doc); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
