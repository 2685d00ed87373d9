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
// file holds the persisted document shapes: the video record, the transcript
// document keyed 1:1 by video id, and the append-only error record written
// to the errors collection. Field names in the firestore tags are the wire
// contract shared with the client applications and must not drift.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Video lifecycle statuses. A video is created externally in StatusUploading
// and flips to StatusActive once the storage write is confirmed; that
// transition is what starts transcription.
const (
	StatusUploading = "uploading"
	StatusActive    = "active"
)

// TranscriptLanguage is the only language requested from the speech-to-text
// provider and recorded in transcript metadata.
const TranscriptLanguage = "en"

// TranscriptVersion is the schema version stamped into transcript metadata.
const TranscriptVersion = 1

// VideoDocument represents an uploaded video asset as persisted in the
// videos collection. Description and HasRecipe are set exactly once by the
// recipe workflow and never reverted.
type VideoDocument struct {
	Status      string     `firestore:"status" json:"status"`
	VideoURL    string     `firestore:"videoUrl" json:"videoUrl"`
	HasRecipe   bool       `firestore:"hasRecipe" json:"hasRecipe"`
	Description string     `firestore:"description,omitempty" json:"description,omitempty"`
	UpdatedAt   *time.Time `firestore:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// TranscriptMetadata is the bookkeeping block on a transcript document.
type TranscriptMetadata struct {
	Language          string     `firestore:"language,omitempty" json:"language,omitempty"`
	Version           int        `firestore:"version,omitempty" json:"version,omitempty"`
	LastAccessed      *time.Time `firestore:"lastAccessed,omitempty" json:"lastAccessed,omitempty"`
	StartedProcessing *time.Time `firestore:"startedProcessing" json:"startedProcessing"`
	ErrorTimestamp    *time.Time `firestore:"errorTimestamp" json:"errorTimestamp"`
}

// Word is a single word with millisecond timing. End may equal Start for
// words synthesized at segment boundaries.
type Word struct {
	Word  string `firestore:"word" json:"word"`
	Start int64  `firestore:"start" json:"start"`
	End   int64  `firestore:"end" json:"end"`
}

// TranscriptSegment is a contiguous span of transcribed speech. Start and
// End are integer milliseconds from the beginning of the audio. Keywords is
// reserved for future extraction and is always written empty.
type TranscriptSegment struct {
	Start    int64    `firestore:"start" json:"start"`
	End      int64    `firestore:"end" json:"end"`
	Text     string   `firestore:"text" json:"text"`
	Words    []Word   `firestore:"words" json:"words"`
	Keywords []string `firestore:"keywords" json:"keywords"`
}

// TranscriptDocument is the transcript record for a video, keyed by the
// video id. At most one of the following holds at a time: IsProcessing is
// true, Error is set, or Segments is populated as the terminal success
// state. It is only ever written as a complete snapshot or a merge of the
// processing/error flags, never as a partial segment list.
type TranscriptDocument struct {
	Segments     []TranscriptSegment `firestore:"segments" json:"segments"`
	Text         string              `firestore:"text,omitempty" json:"text,omitempty"`
	IsProcessing bool                `firestore:"isProcessing" json:"isProcessing"`
	Error        string              `firestore:"error,omitempty" json:"error,omitempty"`
	Metadata     TranscriptMetadata  `firestore:"metadata" json:"metadata"`
}

// NewCompletedTranscript builds the terminal success snapshot for a video's
// transcript: processing off, no error, metadata stamped with the language,
// schema version, and access time.
func NewCompletedTranscript(segments []TranscriptSegment, text string, now time.Time) *TranscriptDocument {
	return &TranscriptDocument{
		Segments:     segments,
		Text:         text,
		IsProcessing: false,
		Error:        "",
		Metadata: TranscriptMetadata{
			Language:          TranscriptLanguage,
			Version:           TranscriptVersion,
			LastAccessed:      &now,
			StartedProcessing: nil,
			ErrorTimestamp:    nil,
		},
	}
}

// Validate checks the document against the persistence invariants right
// before a write. Any violation blocks the whole write; partial documents
// are never saved.
func (d *TranscriptDocument) Validate() error {
	if d.IsProcessing && d.Error != "" {
		return &PersistenceInvariantError{Reason: "isProcessing and error are mutually exclusive"}
	}
	var prevStart int64 = -1
	for i, seg := range d.Segments {
		if len(seg.Text) == 0 {
			return &InvalidSegmentError{Index: i, Reason: "empty text"}
		}
		if seg.Start < 0 || seg.End <= seg.Start {
			return &InvalidSegmentError{Index: i, Reason: "invalid timing bounds"}
		}
		if seg.Start < prevStart {
			return &InvalidSegmentError{Index: i, Reason: "segments out of order"}
		}
		prevStart = seg.Start
	}
	return nil
}

// ErrorRecord is an append-only audit entry written to the errors collection
// on unrecoverable pipeline failures. The pipeline never reads it back; it
// exists for operators.
type ErrorRecord struct {
	ID        string                 `firestore:"-" json:"id"`
	Type      string                 `firestore:"type" json:"type"`
	VideoID   string                 `firestore:"videoId" json:"videoId"`
	Timestamp time.Time              `firestore:"timestamp" json:"timestamp"`
	Error     string                 `firestore:"error" json:"error"`
	Stack     string                 `firestore:"stack,omitempty" json:"stack,omitempty"`
	Context   map[string]interface{} `firestore:"context,omitempty" json:"context,omitempty"`
}

// NewErrorRecord stamps a fresh record with a generated id and the current
// time.
func NewErrorRecord(recordType string, videoID string, err error) *ErrorRecord {
	return &ErrorRecord{
		ID:        uuid.NewString(),
		Type:      recordType,
		VideoID:   videoID,
		Timestamp: time.Now(),
		Error:     err.Error(),
		Context:   make(map[string]interface{}),
	}
}
