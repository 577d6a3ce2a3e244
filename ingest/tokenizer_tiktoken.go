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

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used when none is specified.
const DefaultEncoding = "cl100k_base"

// BPETokenizer counts and slices text with a real byte-pair encoding via
// tiktoken, matching what embedding models actually see. Loading an
// encoding may fetch its vocabulary on first use.
type BPETokenizer struct {
	encoding *tiktoken.Tiktoken
}

var _ Tokenizer = (*BPETokenizer)(nil)

// NewBPETokenizer loads the named BPE encoding.
func NewBPETokenizer(name string) (*BPETokenizer, error) {
	if name == "" {
		name = DefaultEncoding
	}
	encoding, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %q: %w", name, err)
	}
	return &BPETokenizer{encoding: encoding}, nil
}

// Count reports the number of BPE tokens in text.
func (t *BPETokenizer) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// Tail returns the decoded text of the last n tokens.
func (t *BPETokenizer) Tail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	ids := t.encoding.Encode(text, nil, nil)
	if len(ids) <= n {
		return text
	}
	return t.encoding.Decode(ids[len(ids)-n:])
}

// Split cuts text into consecutive windows of at most max tokens.
func (t *BPETokenizer) Split(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	ids := t.encoding.Encode(text, nil, nil)
	if len(ids) == 0 {
		return nil
	}

	pieces := make([]string, 0, (len(ids)+max-1)/max)
	for start := 0; start < len(ids); start += max {
		end := start + max
		if end > len(ids) {
			end = len(ids)
		}
		pieces = append(pieces, t.encoding.Decode(ids[start:end]))
	}
	return pieces
}
