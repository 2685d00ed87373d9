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

// Package model defines the core data structures for the pipeline. This
// file holds the transient, in-memory shapes that move between workflow
// commands but are never persisted as-is: the raw speech-to-text provider
// response, the normalized transcription result, and the structured recipe
// whose markdown rendering is the only form that reaches the store.
package model

// WhisperWord is a word-level timing from the speech-to-text provider.
// Start and End are fractional seconds as delivered on the wire; the
// normalizer is responsible for scaling them to milliseconds.
type WhisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// WhisperSegment is a provider segment with fractional-second bounds and an
// optional word list.
type WhisperSegment struct {
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []WhisperWord `json:"words"`
}

// WhisperResponse is the typed parse of the provider's verbose transcription
// output. It is the validated boundary between the provider SDK and the
// pipeline; nothing downstream touches the SDK response directly.
type WhisperResponse struct {
	Text     string           `json:"text"`
	Segments []WhisperSegment `json:"segments"`
}

// TranscriptResult is the normalized transcription produced by the pipeline
// and returned to on-demand callers: millisecond segments plus the full
// provider text.
type TranscriptResult struct {
	Segments []TranscriptSegment `json:"segments"`
	Text     string              `json:"text"`
}

// Recipe is the structured form recovered from free-text completion output.
// Ingredients and Steps may legitimately be empty when the source text had
// no recognizable section headers; that is a degraded result, not an error.
type Recipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

// GenerateTranscriptRequest is the payload of the on-demand transcription
// operation.
type GenerateTranscriptRequest struct {
	VideoID  string `json:"videoId"`
	VideoURL string `json:"videoUrl"`
}
