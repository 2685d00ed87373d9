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
// This file defines the wire format for Firestore document-change notifications.
// A relay publishes one JSON message per document write to a Pub/Sub topic, and
// the pipeline's listeners decode those messages to decide what work to do.
//
// The envelope carries the raw before and after snapshots of the document so
// that each consumer can decode them into the document type of its collection.
// A missing "before" means the document was created; a missing "after" means
// it was deleted.
package cloud

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// DocumentChangeNotification is the envelope published for every Firestore
// document write. Before and After are kept as raw JSON so the envelope stays
// collection-agnostic; consumers decode them with the typed helpers below.
type DocumentChangeNotification struct {
	Collection string          `json:"collection"` // The Firestore collection the write occurred in.
	DocumentID string          `json:"documentId"` // The document ID, which for this pipeline is the video ID.
	Before     json.RawMessage `json:"before"`     // Snapshot prior to the write, or null on create.
	After      json.RawMessage `json:"after"`      // Snapshot after the write, or null on delete.
	UpdateTime time.Time       `json:"updateTime"` // Server timestamp of the write.
}

// ParseDocumentChange decodes a raw Pub/Sub payload into a change notification.
// The document ID is required since every downstream write is keyed by it.
func ParseDocumentChange(data []byte) (*DocumentChangeNotification, error) {
	var event DocumentChangeNotification
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode document change notification: %w", err)
	}
	if event.DocumentID == "" {
		return nil, fmt.Errorf("document change notification is missing a document id")
	}
	return &event, nil
}

// VideoSnapshots decodes the before and after snapshots as video documents.
// A nil pointer is returned for a snapshot that is absent (create or delete).
func (d *DocumentChangeNotification) VideoSnapshots() (before *model.VideoDocument, after *model.VideoDocument, err error) {
	before, err = decodeSnapshot[model.VideoDocument](d.Before)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode video snapshot (before): %w", err)
	}
	after, err = decodeSnapshot[model.VideoDocument](d.After)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode video snapshot (after): %w", err)
	}
	return before, after, nil
}

// TranscriptSnapshots decodes the before and after snapshots as transcript
// documents. A nil pointer is returned for a snapshot that is absent.
func (d *DocumentChangeNotification) TranscriptSnapshots() (before *model.TranscriptDocument, after *model.TranscriptDocument, err error) {
	before, err = decodeSnapshot[model.TranscriptDocument](d.Before)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode transcript snapshot (before): %w", err)
	}
	after, err = decodeSnapshot[model.TranscriptDocument](d.After)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode transcript snapshot (after): %w", err)
	}
	return before, after, nil
}

// decodeSnapshot unmarshals a single snapshot, treating an absent or JSON
// null snapshot as nil rather than an empty document.
func decodeSnapshot[T any](raw json.RawMessage) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
