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

// Package main contains the setup and initialization logic for the
// application's state: loading configuration, creating service clients,
// wiring the services and workflows together, and starting the Pub/Sub
// listeners.
//
// Functions:
//   - SetupOS: Points the configuration loader at the configs directory.
//   - GetConfig: Singleton loader for the TOML configuration.
//   - InitState: Creates all clients, services, and workflows.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
	"github.com/spoonfeed/recipe-pipeline/internal/core/services"
	"github.com/spoonfeed/recipe-pipeline/internal/core/workflow"
)

// Logical names used to look up configured models and subscriptions. They
// match the keys in configs/.env.toml.
const (
	SpeechModelName        = "transcriber"
	CompletionModelName    = "chef"
	VideoSubscription      = "VideoChanges"
	TranscriptSubscription = "TranscriptChanges"
)

// StateManager holds all the shared dependencies for the application,
// acting as a centralized container for clients, services, and workflows.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	transcripts   *services.TranscriptService
	videos        *services.VideoService
	errors        *services.ErrorService
	transcription *workflow.TranscriptionWorkflow
	recipe        *workflow.RecipeWorkflow
}

// state holds the single instance of StateManager.
var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the TOML files. The runtime defaults to "local" so a plain server
// start picks up .env.local.toml overrides.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides the singleton application configuration, loading it
// from the TOML files on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the entire application state: cloud clients, the
// Firestore-backed services, the two workflows, and the listeners that
// drive them.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	signedURLTTL := time.Duration(config.Storage.SignedURLTTLMinutes) * time.Minute

	state.transcripts = services.NewTranscriptService(cloudClients.FirestoreClient, config.Firestore.Transcripts)
	state.videos = services.NewVideoService(cloudClients.FirestoreClient, cloudClients.StorageClient, config.Firestore.Videos, signedURLTTL)
	state.errors = services.NewErrorService(cloudClients.FirestoreClient, config.Firestore.Errors)

	transcriber := workflow.NewMediaTranscriber(
		config,
		cloudClients.OpenAIClient,
		config.SpeechModels[SpeechModelName],
		state.transcripts,
	)
	state.transcription = workflow.NewTranscriptionWorkflow(
		"transcription-workflow",
		state.transcripts,
		state.videos,
		transcriber,
	)

	composer := workflow.NewRecipeChain(cloudClients.CompletionModels[CompletionModelName], state.videos)
	state.recipe = workflow.NewRecipeWorkflow(
		"recipe-workflow",
		state.transcripts,
		state.videos,
		state.errors,
		composer,
	)

	SetupListeners(config, cloudClients, ctx)
}
