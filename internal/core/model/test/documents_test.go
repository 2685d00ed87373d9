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

// Package model_test contains unit tests for the data models defined in the
// model package: the transcript document invariants that gate every write,
// and the error record constructor.
package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func validSegments() []model.TranscriptSegment {
	return []model.TranscriptSegment{
		{Start: 0, End: 4200, Text: "Today we are making pasta.", Words: []model.Word{}, Keywords: []string{}},
		{Start: 4200, End: 9100, Text: "You will need tomatoes and garlic.", Words: []model.Word{}, Keywords: []string{}},
	}
}

// TestNewCompletedTranscript verifies the terminal success snapshot: the
// processing flag off, no error, and metadata stamped with language,
// version, and the access time.
func TestNewCompletedTranscript(t *testing.T) {
	now := time.Now()
	doc := model.NewCompletedTranscript(validSegments(), "full text", now)

	assert.False(t, doc.IsProcessing)
	assert.Empty(t, doc.Error)
	assert.Equal(t, model.TranscriptLanguage, doc.Metadata.Language)
	assert.Equal(t, model.TranscriptVersion, doc.Metadata.Version)
	assert.Equal(t, now, *doc.Metadata.LastAccessed)
	assert.Nil(t, doc.Metadata.ErrorTimestamp)
	assert.NoError(t, doc.Validate())
}

// TestValidateRejectsProcessingWithError checks the exclusivity invariant:
// a document can be processing or failed, never both.
func TestValidateRejectsProcessingWithError(t *testing.T) {
	doc := &model.TranscriptDocument{
		IsProcessing: true,
		Error:        "boom",
	}

	err := doc.Validate()
	var invariantErr *model.PersistenceInvariantError
	assert.True(t, errors.As(err, &invariantErr))
}

// TestValidateSegmentRules exercises the per-segment timing and text rules.
func TestValidateSegmentRules(t *testing.T) {
	cases := []struct {
		name     string
		segments []model.TranscriptSegment
	}{
		{
			name:     "empty text",
			segments: []model.TranscriptSegment{{Start: 0, End: 100, Text: ""}},
		},
		{
			name:     "negative start",
			segments: []model.TranscriptSegment{{Start: -1, End: 100, Text: "a"}},
		},
		{
			name:     "end not after start",
			segments: []model.TranscriptSegment{{Start: 100, End: 100, Text: "a"}},
		},
		{
			name: "out of order",
			segments: []model.TranscriptSegment{
				{Start: 5000, End: 6000, Text: "b"},
				{Start: 0, End: 1000, Text: "a"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := &model.TranscriptDocument{Segments: tc.segments, Text: "t"}
			err := doc.Validate()
			var segErr *model.InvalidSegmentError
			assert.True(t, errors.As(err, &segErr))
		})
	}
}

// TestValidateAllowsTouchingSegments confirms that back-to-back segments
// sharing a boundary are legal; only a decreasing start is not.
func TestValidateAllowsTouchingSegments(t *testing.T) {
	doc := &model.TranscriptDocument{Segments: validSegments(), Text: "t"}
	assert.NoError(t, doc.Validate())
}

// TestNewErrorRecord verifies that an error record gets a generated ID, a
// recent timestamp, and an initialized context map.
func TestNewErrorRecord(t *testing.T) {
	cause := errors.New("completion failed")
	rec := model.NewErrorRecord("recipe_generation_failure", "video-1", cause)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "recipe_generation_failure", rec.Type)
	assert.Equal(t, "video-1", rec.VideoID)
	assert.Equal(t, cause.Error(), rec.Error)
	assert.WithinDuration(t, time.Now(), rec.Timestamp, time.Second)
	assert.NotNil(t, rec.Context)
}
