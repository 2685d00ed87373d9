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
// processing pipelines. This file defines the normalization step that maps
// the provider's raw transcription into the persisted transcript shape.
//
// Normalization is a pure function of its input: given the same provider
// response it always produces the same segments, so a redelivered message
// that reruns the pipeline converges on an identical document.
//
// Two degraded inputs are handled here rather than failed:
//   - A response with text but no segments is synthesized into one segment
//     per sentence with fixed one-second placeholder timings.
//   - A segment with text but no word timings gets words synthesized by
//     evenly subdividing the segment's time span.
package commands

import (
	"math"
	"regexp"
	"strings"

	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
)

// TranscriptOutputParam is the context key the normalizer publishes its
// result under, so the workflow can read it after the chain completes.
const TranscriptOutputParam = "__TRANSCRIPT_RESULT__"

// synthesizedSentenceMillis is the placeholder duration assigned to each
// sentence when the provider returned no segment timings at all.
const synthesizedSentenceMillis = 1000

// sentenceSplitPattern breaks degraded full-text responses into sentences.
// Runs of terminal punctuation count as a single boundary.
var sentenceSplitPattern = regexp.MustCompile(`[.!?]+`)

// TranscriptNormalizer converts a *model.WhisperResponse into the
// *model.TranscriptResult that gets persisted and returned to callers. It
// publishes its output under TranscriptOutputParam instead of the default
// piping key because it is the terminal command of the acquisition chain.
type TranscriptNormalizer struct {
	cor.BaseCommand
}

func NewTranscriptNormalizer(name string) *TranscriptNormalizer {
	cmd := &TranscriptNormalizer{BaseCommand: *cor.NewBaseCommand(name)}
	cmd.OutputParamName = TranscriptOutputParam
	return cmd
}

func (c *TranscriptNormalizer) Execute(context cor.Context) {
	_, span := c.Tracer.Start(context.GetContext(), c.GetName())
	defer span.End()

	raw := context.Get(c.GetInputParam()).(*model.WhisperResponse)
	result := NormalizeTranscription(raw)
	if len(result.Segments) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.InvalidProviderResponseError{Reason: "no usable segments in transcription"})
		return
	}

	context.Add(c.GetOutputParam(), result)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}

// NormalizeTranscription maps the provider's fractional-second response to
// millisecond segments. When the provider returned text without segments,
// segments are synthesized per sentence with placeholder timings.
func NormalizeTranscription(raw *model.WhisperResponse) *model.TranscriptResult {
	if len(raw.Segments) == 0 {
		return &model.TranscriptResult{
			Segments: SynthesizeSegmentsFromText(raw.Text),
			Text:     raw.Text,
		}
	}

	segments := make([]model.TranscriptSegment, 0, len(raw.Segments))
	for _, seg := range raw.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		out := model.TranscriptSegment{
			Start:    toMillis(seg.Start),
			End:      toMillis(seg.End),
			Text:     text,
			Words:    make([]model.Word, 0, len(seg.Words)),
			Keywords: []string{},
		}
		for _, w := range seg.Words {
			out.Words = append(out.Words, model.Word{
				Word:  w.Word,
				Start: toMillis(w.Start),
				End:   toMillis(w.End),
			})
		}
		if len(out.Words) == 0 {
			out.Words = SynthesizeWords(text, out.Start, out.End)
		}
		segments = append(segments, out)
	}

	return &model.TranscriptResult{Segments: segments, Text: raw.Text}
}

// SynthesizeSegmentsFromText builds one segment per sentence of the full
// response text. Each sentence is assigned a fixed one-second span and has
// its terminal period restored; word timings are unknowable, so the word
// lists stay empty.
func SynthesizeSegmentsFromText(text string) []model.TranscriptSegment {
	segments := make([]model.TranscriptSegment, 0)
	for _, sentence := range sentenceSplitPattern.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		i := int64(len(segments))
		segments = append(segments, model.TranscriptSegment{
			Start:    i * synthesizedSentenceMillis,
			End:      (i + 1) * synthesizedSentenceMillis,
			Text:     sentence + ".",
			Words:    []model.Word{},
			Keywords: []string{},
		})
	}
	return segments
}

// SynthesizeWords evenly subdivides a segment's time span across its
// whitespace-separated words. Each boundary is interpolated fractionally and
// rounded on its own, so the words stay contiguous and the final word's end
// always equals the segment's end.
func SynthesizeWords(text string, start int64, end int64) []model.Word {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return []model.Word{}
	}
	words := make([]model.Word, 0, len(fields))
	step := float64(end-start) / float64(len(fields))
	for i, field := range fields {
		wordStart := start + int64(math.Round(float64(i)*step))
		wordEnd := start + int64(math.Round(float64(i+1)*step))
		if i == len(fields)-1 {
			wordEnd = end
		}
		words = append(words, model.Word{Word: field, Start: wordStart, End: wordEnd})
	}
	return words
}

// toMillis converts the provider's fractional seconds to integer
// milliseconds, rounding half away from zero.
func toMillis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}
