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

// Package cloud provides components for interacting with Google Cloud services.
// This file initializes and holds all the client objects the pipeline needs
// to talk to external services. It acts as a dependency injection container,
// creating a single shared ServiceClients struct that is passed throughout
// the application.
//
// Logic Flow:
//  1. NewCloudServiceClients is called at application startup with the loaded Config.
//  2. It initializes clients for Firestore, Storage, Pub/Sub, and OpenAI.
//  3. It reads the configuration to create the Pub/Sub listeners and the
//     rate-limited completion models, storing them in maps keyed by the
//     logical names used in the config file.
//  4. All initialized clients are bundled into a single ServiceClients struct
//     used by the services, workflows, and API handlers.
//
// Structs:
//   - ServiceClients: Container holding all initialized service clients.
//
// Functions:
//   - Close: Gracefully shuts down all client connections.
//   - NewCloudServiceClients: Factory that creates and configures all clients.
package cloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	openai "github.com/sashabaranov/go-openai"
)

// ServiceClients is a central container for all the clients that interact
// with external services. This is a form of dependency injection, making it
// easy to share the client connections across the application.
type ServiceClients struct {
	FirestoreClient  *firestore.Client                     // Client for Firestore document reads and writes.
	StorageClient    *storage.Client                       // Client for Google Cloud Storage (GCS).
	PubsubClient     *pubsub.Client                        // Client for Google Cloud Pub/Sub.
	OpenAIClient     *openai.Client                        // Client for the OpenAI transcription and completion APIs.
	PubSubListeners  map[string]*PubSubListener            // Active Pub/Sub listeners, keyed by logical name from the config.
	CompletionModels map[string]*QuotaAwareCompletionModel // Rate-limited completion models, keyed by logical name.
}

// Close releases all active client connections. Client lifecycles are
// normally tied to the root context, but tests and controlled shutdowns
// want an explicit release.
func (c *ServiceClients) Close() {
	_ = c.FirestoreClient.Close()
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
}

// NewCloudServiceClients initializes all required service clients based on
// the provided configuration. It is the main entry point for setting up the
// application's external dependencies.
//
// Inputs:
//   - ctx: The root context for the application, managing client lifecycles.
//   - config: A pointer to the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The fully initialized client container.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	// Firestore holds the video, transcript, and error documents.
	fc, err := firestore.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	// Storage is only needed to mint signed URLs for gs:// locators.
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	// The OpenAI key can come from the environment or the config file, with
	// the environment taking precedence so deployments never bake the key
	// into the TOML.
	apiKey := os.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		apiKey = config.Application.OpenAIAPIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no OpenAI API key set in %s or the application config", EnvOpenAIAPIKey)
	}
	oc := openai.NewClient(apiKey)

	// Create a PubSubListener for each configured subscription. The command
	// is initially nil; it is attached later when the workflows are built.
	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	// Wrap each configured completion model with the rate limiter.
	completionModels := make(map[string]*QuotaAwareCompletionModel)
	for cmKey := range config.CompletionModels {
		completionModels[cmKey] = NewQuotaAwareCompletionModel(oc, config.CompletionModels[cmKey])
	}

	cloud = &ServiceClients{
		FirestoreClient:  fc,
		StorageClient:    sc,
		PubsubClient:     pc,
		OpenAIClient:     oc,
		PubSubListeners:  subscriptions,
		CompletionModels: completionModels,
	}

	return cloud, err
}
