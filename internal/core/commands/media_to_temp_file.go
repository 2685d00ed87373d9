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

// Package commands contains the individual, reusable units of work for the
// processing pipelines. This file defines the command that downloads the
// source video into a per-execution temporary directory. The directory is
// registered with the chain context so it is removed when the execution
// finishes, on every exit path.
package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// sourceFileName is the fixed name of the downloaded video inside the
// staging directory. The real name never matters; ffmpeg sniffs the
// container format from the content.
const sourceFileName = "source.mp4"

// MediaToTempFile fetches the resolved video URL over HTTP and stages it in
// a fresh temporary directory. Input: the fetchable URL. Output: the path of
// the staged video file.
type MediaToTempFile struct {
	cor.BaseCommand
	client *http.Client
}

func NewMediaToTempFile(name string, client *http.Client) *MediaToTempFile {
	return &MediaToTempFile{BaseCommand: *cor.NewBaseCommand(name), client: client}
}

func (c *MediaToTempFile) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	url := context.Get(c.GetInputParam()).(string)

	out, err := c.download(context, url)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MediaFetchError{URL: url, Err: err})
		return
	}

	context.Add(c.GetOutputParam(), out)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}

func (c *MediaToTempFile) download(context cor.Context, url string) (string, error) {
	videoID, _ := context.Get(CtxVideoID).(string)
	dir, err := os.MkdirTemp("", fmt.Sprintf("video-%s-*", videoID))
	if err != nil {
		return "", err
	}
	// Track the whole directory so cleanup also covers the audio file the
	// extractor drops next to the video.
	context.AddTempFile(dir)

	req, err := http.NewRequestWithContext(context.GetContext(), http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s fetching video", resp.Status)
	}

	out := filepath.Join(dir, sourceFileName)
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	return out, nil
}
