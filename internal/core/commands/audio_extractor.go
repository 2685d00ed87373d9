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
// processing pipelines. This file defines the ffmpeg wrapper that strips
// the video track and re-encodes the audio as mp3, which is what the
// speech-to-text provider wants and is an order of magnitude smaller than
// the source video.
package commands

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// AudioExtractor shells out to ffmpeg to produce an audio-only mp3 next to
// the staged video file. Input: the staged video path. Output: the mp3 path.
// The mp3 lives in the same temp directory as the video, so the context's
// cleanup covers it.
type AudioExtractor struct {
	cor.BaseCommand
	ffmpegPath string
}

func NewAudioExtractor(name string, ffmpegPath string) *AudioExtractor {
	return &AudioExtractor{BaseCommand: *cor.NewBaseCommand(name), ffmpegPath: ffmpegPath}
}

func (c *AudioExtractor) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	in := context.Get(c.GetInputParam()).(string)
	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".mp3"

	// -vn drops the video stream, -y overwrites a leftover from a retried
	// execution instead of failing.
	cmd := exec.CommandContext(context.GetContext(), c.ffmpegPath,
		"-i", in,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		"-y",
		out)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MediaFetchError{
			URL: in,
			Err: fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String())),
		})
		return
	}

	context.Add(c.GetOutputParam(), out)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}

// lastLine extracts the final non-empty line of ffmpeg's stderr, which is
// where ffmpeg puts the actual reason for a failure.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
