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
	"errors"

	"cloud.google.com/go/firestore"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// ErrorService appends pipeline error records to the errors collection.
// Records are write-only from the pipeline's point of view; nothing in the
// system ever reads them back.
type ErrorService struct {
	Client     *firestore.Client
	Collection string
}

func NewErrorService(client *firestore.Client, collection string) *ErrorService {
	return &ErrorService{Client: client, Collection: collection}
}

// Record appends one error record. Create (not Set) guards against two
// writers reusing the same generated ID.
func (s *ErrorService) Record(ctx context.Context, rec *model.ErrorRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("error record requires a generated id")
	}
	_, err := s.Client.Collection(s.Collection).Doc(rec.ID).Create(ctx, rec)
	return err
}
