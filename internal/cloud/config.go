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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for Google Cloud services, OpenAI models, Pub/Sub subscriptions, and the
// local media tooling.
//
// This file centralizes all configuration-related structs, making it easy
// to understand and manage the application's configurable parameters.
//
// Structs:
//   - FirestoreCollections: Names of the Firestore collections used by the pipeline.
//   - Storage: Configuration for Cloud Storage access and URL signing.
//   - Media: Configuration for local media acquisition (ffmpeg, temp space).
//   - SpeechModel: Configuration for a speech-to-text (transcription) model.
//   - CompletionModel: Configuration for a chat-completion model.
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps.
package cloud

// FirestoreCollections holds the names of the Firestore collections the
// pipeline reads and writes. Keeping them in configuration lets the test
// runtime point at disposable collections.
type FirestoreCollections struct {
	Videos      string `toml:"videos"`      // Collection of video documents keyed by video ID.
	Transcripts string `toml:"transcripts"` // Collection of transcript documents keyed by video ID.
	Errors      string `toml:"errors"`      // Append-only collection of pipeline error records.
}

// Storage represents the configuration for Cloud Storage access.
type Storage struct {
	SignedURLTTLMinutes       int    `toml:"signed_url_ttl_minutes"`       // Lifetime of V4 signed URLs minted for gs:// locators.
	SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account email used for signing GCS URLs.
}

// Media holds the configuration for local media acquisition and conversion.
type Media struct {
	FFMpegPath             string `toml:"ffmpeg_path"`              // Path to the ffmpeg binary used for audio extraction.
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"` // HTTP timeout for fetching source videos.
}

// SpeechModel represents the configuration for a speech-to-text model.
type SpeechModel struct {
	Model    string `toml:"model"`    // The provider model name (e.g. "whisper-1").
	Language string `toml:"language"` // The ISO language hint passed with each transcription request.
}

// CompletionModel represents the configuration for a chat-completion model.
type CompletionModel struct {
	Model              string  `toml:"model"`               // The provider model name (e.g. "gpt-4").
	SystemInstructions string  `toml:"system_instructions"` // The system prompt sent ahead of every request.
	Temperature        float32 `toml:"temperature"`         // The sampling temperature for the model.
	MaxTokens          int     `toml:"max_tokens"`          // The maximum number of tokens in the model output.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the model in requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Config represents the overall configuration for the application, loaded from
// TOML files. It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		OpenAIAPIKey    string `toml:"openai_api_key"`    // The OpenAI API key. OPENAI_API_KEY overrides this when set.
	} `toml:"application"`
	Firestore          FirestoreCollections         `toml:"firestore"`           // Firestore collection names.
	Storage            Storage                      `toml:"storage"`             // Cloud Storage configuration.
	Media              Media                        `toml:"media"`               // Local media tooling configuration.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // A map of Pub/Sub subscriptions, keyed by a logical name (e.g. "VideoChanges").
	SpeechModels       map[string]SpeechModel       `toml:"speech_models"`       // A map of speech-to-text models, keyed by a logical name (e.g. "transcriber").
	CompletionModels   map[string]CompletionModel   `toml:"completion_models"`   // A map of chat-completion models, keyed by a logical name (e.g. "chef").
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. The maps must be initialized before the configuration loader
// populates them.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		SpeechModels:       make(map[string]SpeechModel),
		CompletionModels:   make(map[string]CompletionModel),
	}
}
