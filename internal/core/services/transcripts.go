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

// Package services implements the persistence layer over Firestore. Each
// service owns one collection and exposes the narrow set of operations the
// workflows need, so workflow tests can swap in fakes.
package services

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// TranscriptService reads and writes the transcript documents, keyed 1:1 by
// video ID.
type TranscriptService struct {
	Client     *firestore.Client
	Collection string
}

func NewTranscriptService(client *firestore.Client, collection string) *TranscriptService {
	return &TranscriptService{Client: client, Collection: collection}
}

// Get loads the transcript document for a video. The boolean reports whether
// the document exists; absence is not an error.
func (s *TranscriptService) Get(ctx context.Context, videoID string) (*model.TranscriptDocument, bool, error) {
	snap, err := s.Client.Collection(s.Collection).Doc(videoID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var doc model.TranscriptDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, false, err
	}
	return &doc, true, nil
}

// MarkProcessing claims the transcript for processing. It runs as a
// transaction so that concurrent deliveries of the same change event race on
// a single compare-and-set: whichever transaction commits first wins, and
// the loser observes isProcessing already true and receives
// model.ErrAlreadyProcessing. Claiming also clears any error left by a
// previous failed run, keeping the processing flag and the error field
// mutually exclusive at every commit point.
func (s *TranscriptService) MarkProcessing(ctx context.Context, videoID string, now time.Time) error {
	ref := s.Client.Collection(s.Collection).Doc(videoID)
	return s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if snap != nil && snap.Exists() {
			var doc model.TranscriptDocument
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			if doc.IsProcessing {
				return model.ErrAlreadyProcessing
			}
		}
		return tx.Set(ref, map[string]interface{}{
			"isProcessing": true,
			"error":        firestore.Delete,
			"metadata": map[string]interface{}{
				"startedProcessing": now,
				"lastAccessed":      now,
			},
		}, firestore.MergeAll)
	})
}

// SaveResult validates and persists the completed transcript as a full
// document snapshot, replacing the processing marker. A document that fails
// validation is not written at all.
func (s *TranscriptService) SaveResult(ctx context.Context, videoID string, doc *model.TranscriptDocument) error {
	if doc == nil {
		return errors.New("transcript document is nil")
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	_, err := s.Client.Collection(s.Collection).Doc(videoID).Set(ctx, doc)
	return err
}

// SaveFailure records a terminal pipeline failure on the transcript document
// itself. The merge clears the processing flag and stamps the error, so a
// later on-demand run can reclaim the document.
func (s *TranscriptService) SaveFailure(ctx context.Context, videoID string, message string, now time.Time) error {
	_, err := s.Client.Collection(s.Collection).Doc(videoID).Set(ctx, map[string]interface{}{
		"isProcessing": false,
		"error":        message,
		"metadata": map[string]interface{}{
			"errorTimestamp": now,
			"lastAccessed":   now,
		},
	}, firestore.MergeAll)
	return err
}
