// Copyright 2026 Stratum Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import "strings"

// Lines containing these phrases are treated as page furniture and
// dropped before chunking.
var boilerplatePhrases = []string{
	"cookie policy",
	"privacy policy",
	"terms of service",
	"copyright ©",
	"all rights reserved",
	"navigation",
	"menu",
	"footer",
	"header",
}

// Lines shorter than this that carry no structural marker are assumed to
// be stray navigation fragments.
const minContentLineLen = 10

// Preprocessor normalizes raw extracted text for chunking. Whitespace is
// collapsed and boilerplate removed, but the structural markers the
// chunker keys on, headings and paragraph breaks, are preserved.
type Preprocessor struct{}

// NewPreprocessor creates a text preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Normalize runs the full preprocessing pipeline over raw text.
// The output is deterministic: normalizing twice yields the same text.
func (p *Preprocessor) Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	blankPending := false

	for _, line := range lines {
		line = collapseSpaces(line)

		if line == "" {
			// Collapse runs of blank lines into one paragraph break.
			if len(kept) > 0 {
				blankPending = true
			}
			continue
		}
		if isBoilerplate(line) {
			continue
		}
		if len(line) < minContentLineLen && !isStructural(line) {
			continue
		}

		if blankPending {
			kept = append(kept, "")
			blankPending = false
		}
		kept = append(kept, normalizeMarkers(line))
	}

	return strings.Join(kept, "\n")
}

// collapseSpaces reduces internal whitespace runs to single spaces and
// trims the ends.
func collapseSpaces(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// isStructural reports whether a line is a heading or list item, which
// must survive the short-line filter.
func isStructural(line string) bool {
	if isHeading(line) {
		return true
	}
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")
}

// isHeading reports whether a line is a markdown-style heading.
func isHeading(line string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	trimmed := strings.TrimLeft(line, "#")
	if len(line)-len(trimmed) > 6 {
		return false
	}
	return strings.HasPrefix(trimmed, " ") && strings.TrimSpace(trimmed) != ""
}

// normalizeMarkers unifies list bullets so the chunker sees one marker
// style.
func normalizeMarkers(line string) string {
	if strings.HasPrefix(line, "* ") {
		return "- " + line[2:]
	}
	return line
}
