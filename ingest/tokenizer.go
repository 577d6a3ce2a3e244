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
)

// Tokenizer kinds accepted by NewTokenizer.
const (
	// TokenizerWords approximates tokens as whitespace-delimited words.
	TokenizerWords = "words"

	// TokenizerBPE counts real BPE tokens via tiktoken.
	TokenizerBPE = "bpe"
)

// NewTokenizer builds a tokenizer by kind. An empty kind selects the
// word tokenizer. The encoding only applies to the BPE kind; empty
// falls back to DefaultEncoding.
func NewTokenizer(kind, encoding string) (Tokenizer, error) {
	switch kind {
	case "", TokenizerWords:
		return NewWordTokenizer(), nil
	case TokenizerBPE:
		return NewBPETokenizer(encoding)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTokenizer, kind)
	}
}

// Tokenizer measures and slices text in token units. The chunker depends
// only on this interface, so token accounting can be swapped between the
// cheap word-based approximation and a real BPE encoding.
type Tokenizer interface {
	// Count reports the number of tokens in text.
	Count(text string) int

	// Tail returns the text of the last n tokens, re-rendered from the
	// token stream rather than copied byte-for-byte.
	Tail(text string, n int) string

	// Split cuts text into consecutive pieces of at most max tokens each.
	Split(text string, max int) []string
}

// WordTokenizer approximates tokens as whitespace-delimited words. It
// needs no encoding tables, which keeps chunking deterministic and
// dependency-free in tests and offline deployments.
type WordTokenizer struct{}

var _ Tokenizer = (*WordTokenizer)(nil)

// NewWordTokenizer creates a word-based tokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{}
}

// Count reports the number of words in text.
func (t *WordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

// Tail returns the last n words of text joined by single spaces.
func (t *WordTokenizer) Tail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[len(words)-n:], " ")
}

// Split cuts text into consecutive word windows of at most max words.
func (t *WordTokenizer) Split(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	pieces := make([]string, 0, (len(words)+max-1)/max)
	for start := 0; start < len(words); start += max {
		end := start + max
		if end > len(words) {
			end = len(words)
		}
		pieces = append(pieces, strings.Join(words[start:end], " "))
	}
	return pieces
}
