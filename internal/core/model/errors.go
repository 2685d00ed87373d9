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
// file holds the shared failure taxonomy. Validation failures reject input
// before any state mutation; fetch and provider failures are terminal for
// the current invocation and are recorded on the relevant document; the
// invariant errors block a write entirely.
package model

import (
	"errors"
	"fmt"
)

// ErrAlreadyProcessing is the sentinel returned by the transcript store's
// conditional mark-processing write when another invocation already holds
// the flag. The orchestrator swallows it silently.
var ErrAlreadyProcessing = errors.New("transcript is already processing")

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ValidationError marks bad or missing input, rejected before any state is
// touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MediaFetchError marks a failure acquiring or decoding the source media.
type MediaFetchError struct {
	URL string
	Err error
}

func (e *MediaFetchError) Error() string {
	return fmt.Sprintf("failed to fetch media from %s: %v", e.URL, e.Err)
}

func (e *MediaFetchError) Unwrap() error { return e.Err }

// ProviderError marks a downstream service failure (speech-to-text or
// completion).
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// InvalidProviderResponseError marks a contract violation in an upstream
// response, such as missing transcription text.
type InvalidProviderResponseError struct {
	Reason string
}

func (e *InvalidProviderResponseError) Error() string {
	return fmt.Sprintf("invalid provider response: %s", e.Reason)
}

// InvalidSegmentError marks a malformed segment detected during output
// validation; the index identifies the offender.
type InvalidSegmentError struct {
	Index  int
	Reason string
}

func (e *InvalidSegmentError) Error() string {
	return fmt.Sprintf("invalid segment at index %d: %s", e.Index, e.Reason)
}

// PersistenceInvariantError marks a document-level invariant violation
// detected just before a write. The write is blocked entirely.
type PersistenceInvariantError struct {
	Reason string
}

func (e *PersistenceInvariantError) Error() string {
	return fmt.Sprintf("persistence invariant violated: %s", e.Reason)
}
