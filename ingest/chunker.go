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

import (
	"fmt"
	"strings"

	"github.com/stratumhq/corpus/core"
)

// Default chunking parameters, in tokens.
const (
	DefaultMinTokens  = 200
	DefaultMaxTokens  = 400
	DefaultOverlapMin = 20
	DefaultOverlapMax = 40
)

// Chunker splits normalized text into overlapping, structure-respecting
// chunks sized for embedding quality. Chunking is deterministic: the same
// input always yields the same chunks and the same chunk IDs.
type Chunker struct {
	tok        Tokenizer
	minTokens  int
	maxTokens  int
	ceiling    int // hard limit a chunk may reach while filling to minTokens
	overlapMin int
	overlapMax int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker) error

// WithTokenBounds sets the target token range for a chunk.
func WithTokenBounds(min, max int) ChunkerOption {
	return func(c *Chunker) error {
		c.minTokens = min
		c.maxTokens = max
		return nil
	}
}

// WithOverlap sets the token range for the overlap window carried into
// each subsequent chunk.
func WithOverlap(min, max int) ChunkerOption {
	return func(c *Chunker) error {
		c.overlapMin = min
		c.overlapMax = max
		return nil
	}
}

// NewChunker creates a chunker over the given tokenizer. Configuration
// errors are fatal here and never surface mid-pipeline.
func NewChunker(tok Tokenizer, opts ...ChunkerOption) (*Chunker, error) {
	if tok == nil {
		return nil, ErrTokenizerRequired
	}

	c := &Chunker{
		tok:        tok,
		minTokens:  DefaultMinTokens,
		maxTokens:  DefaultMaxTokens,
		overlapMin: DefaultOverlapMin,
		overlapMax: DefaultOverlapMax,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.minTokens <= 0 || c.maxTokens <= c.minTokens {
		return nil, fmt.Errorf("%w: min %d, max %d", ErrInvalidChunkBounds, c.minTokens, c.maxTokens)
	}
	if c.overlapMin < 0 || c.overlapMax < c.overlapMin || c.overlapMax >= c.minTokens {
		return nil, fmt.Errorf("%w: min %d, max %d", ErrInvalidOverlap, c.overlapMin, c.overlapMax)
	}

	// A chunk may grow past maxTokens to reach minTokens, but never past
	// this ceiling.
	c.ceiling = c.maxTokens * 3 / 2
	return c, nil
}

// unit is one structural piece of the document: a heading or a paragraph,
// possibly force-split when it alone exceeds the ceiling.
type unit struct {
	section string
	heading bool
	text    string
	tokens  int
}

// Chunk splits normalized text into the ordered chunk sequence for a
// document. An empty or whitespace-only document yields zero chunks. A
// document below the minimum token target yields exactly one chunk.
func (c *Chunker) Chunk(doc core.DocumentID, text string) []core.Chunk {
	units := c.structuralUnits(text)
	if len(units) == 0 {
		return nil
	}

	var (
		chunks    []core.Chunk
		cur       []string
		curTokens int
		section   string
		prevText  string
	)

	closeChunk := func() {
		if len(cur) == 0 {
			return
		}
		chunkText := strings.Join(cur, "\n\n")
		chunks = append(chunks, core.Chunk{
			Document:   doc,
			Ordinal:    len(chunks),
			Text:       chunkText,
			TokenCount: c.tok.Count(chunkText),
			Section:    section,
		})
		prevText = chunkText
		cur = nil
		curTokens = 0
	}

	for _, u := range units {
		if len(cur) > 0 {
			switch {
			case u.heading && curTokens >= c.minTokens:
				// Prefer starting a fresh chunk at a section boundary.
				closeChunk()
			case curTokens+u.tokens > c.maxTokens:
				if curTokens >= c.minTokens || curTokens+u.tokens > c.ceiling {
					closeChunk()
				}
				// Otherwise keep filling toward minTokens within the ceiling.
			}
		}

		if len(cur) == 0 {
			if tail := c.overlapFor(prevText); tail != "" {
				cur = append(cur, tail)
				curTokens = c.tok.Count(tail)
			}
			section = u.section
		}
		cur = append(cur, u.text)
		curTokens += u.tokens
	}
	closeChunk()

	for i := range chunks {
		chunks[i].Id = core.ChunkIDFor(doc, chunks[i].Ordinal, chunks[i].Text)
	}
	for i := range chunks {
		if i > 0 {
			chunks[i].Prev = chunks[i-1].Id
		}
		if i < len(chunks)-1 {
			chunks[i].Next = chunks[i+1].Id
		}
	}
	return chunks
}

// overlapFor recomputes the overlap window from the previous chunk's
// token stream.
func (c *Chunker) overlapFor(prevText string) string {
	if prevText == "" || c.overlapMax == 0 {
		return ""
	}
	return c.tok.Tail(prevText, c.overlapMax)
}

// structuralUnits decomposes text into headings and paragraphs, carrying
// the section each unit falls under. Units larger than the ceiling are
// force-split on sentence boundaries.
func (c *Chunker) structuralUnits(text string) []unit {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		units   []unit
		section string
		pending []string
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		paragraph := strings.Join(pending, "\n")
		pending = nil
		units = append(units, c.splitOversized(unit{
			section: section,
			text:    paragraph,
			tokens:  c.tok.Count(paragraph),
		})...)
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case isHeading(line):
			flush()
			section = strings.TrimSpace(strings.TrimLeft(line, "#"))
			units = append(units, unit{
				section: section,
				heading: true,
				text:    line,
				tokens:  c.tok.Count(line),
			})
		case strings.TrimSpace(line) == "":
			flush()
		default:
			pending = append(pending, line)
		}
	}
	flush()
	return units
}

// splitOversized breaks a unit exceeding the ceiling into sentence groups
// of at most maxTokens. A single runaway sentence is split on raw token
// windows as a last resort.
func (c *Chunker) splitOversized(u unit) []unit {
	if u.tokens <= c.ceiling {
		return []unit{u}
	}

	var (
		units     []unit
		cur       []string
		curTokens int
	)
	emit := func() {
		if len(cur) == 0 {
			return
		}
		text := strings.Join(cur, " ")
		units = append(units, unit{section: u.section, text: text, tokens: c.tok.Count(text)})
		cur = nil
		curTokens = 0
	}

	for _, sentence := range splitSentences(u.text) {
		n := c.tok.Count(sentence)
		if n > c.ceiling {
			emit()
			for _, piece := range c.tok.Split(sentence, c.maxTokens) {
				units = append(units, unit{section: u.section, text: piece, tokens: c.tok.Count(piece)})
			}
			continue
		}
		if curTokens+n > c.maxTokens {
			emit()
		}
		cur = append(cur, sentence)
		curTokens += n
	}
	emit()
	return units
}

// splitSentences cuts text at sentence-final punctuation followed by
// whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			j := i + 1
			for j < len(text) && (text[j] == '.' || text[j] == '!' || text[j] == '?') {
				j++
			}
			if j >= len(text) || text[j] == ' ' || text[j] == '\n' {
				if s := strings.TrimSpace(text[start:j]); s != "" {
					sentences = append(sentences, s)
				}
				start = j
				i = j - 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
