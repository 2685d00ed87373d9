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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners. Each listener drives a chain that decodes the raw
// document-change payload and hands it to the matching workflow.
//
// Functions:
//   - SetupListeners: Attaches the workflow chains to the video-changes and
//     transcript-changes subscriptions and starts them.
package main

import (
	"context"

	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
	"github.com/spoonfeed/recipe-pipeline/internal/core/commands"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
)

// SetupListeners configures and starts the background Pub/Sub listeners.
// The workflows themselves are created in InitState; this only wraps each
// one with an event reader and binds it to its subscription.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	// Video changes drive transcription.
	videoChain := cor.NewBaseChain("video-change-listener")
	videoChain.AddCommand(commands.NewChangeEventReader("video-change-reader"))
	videoChain.AddCommand(state.transcription)
	cloudClients.PubSubListeners[VideoSubscription].SetCommand(videoChain)
	cloudClients.PubSubListeners[VideoSubscription].Listen(ctx)

	// Transcript changes drive recipe generation.
	transcriptChain := cor.NewBaseChain("transcript-change-listener")
	transcriptChain.AddCommand(commands.NewChangeEventReader("transcript-change-reader"))
	transcriptChain.AddCommand(state.recipe)
	cloudClients.PubSubListeners[TranscriptSubscription].SetCommand(transcriptChain)
	cloudClients.PubSubListeners[TranscriptSubscription].Listen(ctx)
}
