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
// processing pipelines. Each command performs one well-defined step, like
// downloading a video, extracting audio, or normalizing a transcript, and
// they are composed into workflows by the workflow package.
//
// This file defines the first command of every listener chain: decoding the
// raw Pub/Sub payload into a typed document-change notification.
package commands

import (
	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
)

// CtxVideoID is the context key carrying the video ID through a pipeline
// execution, alongside the primary data flow.
const CtxVideoID = "__VIDEO_ID__"

// ChangeEventReader decodes the JSON payload of a Pub/Sub message into a
// DocumentChangeNotification and passes it down the chain. A payload that
// cannot be decoded fails the chain, which leaves the message unacked and
// routes it to the subscription's dead-letter topic after the retry policy
// is exhausted.
type ChangeEventReader struct {
	cor.BaseCommand
}

func NewChangeEventReader(name string) *ChangeEventReader {
	return &ChangeEventReader{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ChangeEventReader) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	payload := context.Get(c.GetInputParam()).(string)
	event, err := cloud.ParseDocumentChange([]byte(payload))
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	context.Add(CtxVideoID, event.DocumentID)
	context.Add(c.GetOutputParam(), event)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
