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

// Package test provides utility functions and mock data to support the
// application's test suite: a cached test configuration and sample
// document-change payloads for both listener workflows.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/spoonfeed/recipe-pipeline/internal/cloud"
)

// StateManager caches the loaded configuration so the TOML files are read
// once per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to cut down
// boilerplate in test bodies.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// SetupOS points the configuration loader at the repository's configs
// directory and pins the runtime to "test".
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "../../../configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig returns the singleton test configuration, loading it on first
// use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os for testing: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// GetTestVideoActivationMessage returns the JSON payload of a document
// change notification for a video flipping from uploading to active, which
// is the event that starts transcription.
func GetTestVideoActivationMessage() string {
	return `{
  "collection": "videos",
  "documentId": "test-video-001",
  "before": {
    "status": "uploading",
    "videoUrl": "",
    "hasRecipe": false
  },
  "after": {
    "status": "active",
    "videoUrl": "https://storage.googleapis.com/cooking-videos/test-video-001.mp4",
    "hasRecipe": false
  },
  "updateTime": "2025-04-11T03:04:08.672Z"
	}`
}

// GetTestTranscriptReadyMessage returns the JSON payload of a document
// change notification for a transcript reaching its ready state, which is
// the event that starts recipe generation.
func GetTestTranscriptReadyMessage() string {
	return `{
  "collection": "transcripts",
  "documentId": "test-video-001",
  "before": {
    "segments": [],
    "isProcessing": true,
    "metadata": {}
  },
  "after": {
    "segments": [
      {
        "start": 0,
        "end": 4200,
        "text": "Today we are making a simple tomato pasta.",
        "words": [],
        "keywords": []
      },
      {
        "start": 4200,
        "end": 9100,
        "text": "You will need tomatoes, garlic, olive oil and spaghetti.",
        "words": [],
        "keywords": []
      }
    ],
    "text": "Today we are making a simple tomato pasta. You will need tomatoes, garlic, olive oil and spaghetti.",
    "isProcessing": false,
    "metadata": { "language": "en", "version": 1 }
  },
  "updateTime": "2025-04-11T03:09:45.100Z"
	}`
}
