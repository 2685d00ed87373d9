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

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// GCSPrefix is the object-locator scheme for videos that live in a Cloud
// Storage bucket rather than behind a public URL.
const GCSPrefix = "gs://"

// VideoService reads and updates the video documents and resolves video
// locators into URLs the media tooling can fetch over HTTP.
type VideoService struct {
	Client        *firestore.Client
	StorageClient *storage.Client
	Collection    string
	SignedURLTTL  time.Duration
}

func NewVideoService(client *firestore.Client, storageClient *storage.Client, collection string, signedURLTTL time.Duration) *VideoService {
	return &VideoService{
		Client:        client,
		StorageClient: storageClient,
		Collection:    collection,
		SignedURLTTL:  signedURLTTL,
	}
}

// Get loads the video document. The boolean reports whether the document
// exists; absence is not an error.
func (s *VideoService) Get(ctx context.Context, videoID string) (*model.VideoDocument, bool, error) {
	snap, err := s.Client.Collection(s.Collection).Doc(videoID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var doc model.VideoDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, false, err
	}
	return &doc, true, nil
}

// SaveRecipe writes the generated recipe markdown onto the video document
// and flips the hasRecipe marker. The update is a merge so the rest of the
// video document is left untouched.
func (s *VideoService) SaveRecipe(ctx context.Context, videoID string, markdown string, now time.Time) error {
	_, err := s.Client.Collection(s.Collection).Doc(videoID).Set(ctx, map[string]interface{}{
		"description": markdown,
		"hasRecipe":   true,
		"updatedAt":   now,
	}, firestore.MergeAll)
	return err
}

// ResolveStreamURL turns a stored video locator into a fetchable URL. HTTPS
// locators pass through unchanged; gs:// locators are exchanged for a V4
// signed GET URL so the download never needs bucket credentials.
func (s *VideoService) ResolveStreamURL(locator string) (string, error) {
	if !strings.HasPrefix(locator, GCSPrefix) {
		return locator, nil
	}
	bucket, object, found := strings.Cut(strings.TrimPrefix(locator, GCSPrefix), "/")
	if !found || bucket == "" || object == "" {
		return "", fmt.Errorf("malformed storage locator: %s", locator)
	}
	url, err := s.StorageClient.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Method:  "GET",
		Scheme:  storage.SigningSchemeV4,
		Expires: time.Now().Add(s.SignedURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", locator, err)
	}
	return url, nil
}
