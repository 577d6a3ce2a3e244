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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenizerDefaultsToWords(t *testing.T) {
	tok, err := NewTokenizer("", "")
	require.NoError(t, err)
	assert.IsType(t, &WordTokenizer{}, tok)

	tok, err = NewTokenizer(TokenizerWords, "")
	require.NoError(t, err)
	assert.IsType(t, &WordTokenizer{}, tok)
}

func TestNewTokenizerUnknownKind(t *testing.T) {
	_, err := NewTokenizer("morphemes", "")
	assert.ErrorIs(t, err, ErrUnknownTokenizer)
}

func TestWordTokenizerCount(t *testing.T) {
	tok := NewWordTokenizer()
	assert.Equal(t, 0, tok.Count("   "))
	assert.Equal(t, 3, tok.Count("three short words"))
}

func TestWordTokenizerTail(t *testing.T) {
	tok := NewWordTokenizer()
	assert.Equal(t, "", tok.Tail("some text", 0))
	assert.Equal(t, "short words", tok.Tail("three short words", 2))
	assert.Equal(t, "three short words", tok.Tail("three  short\nwords", 10))
}

func TestWordTokenizerSplit(t *testing.T) {
	tok := NewWordTokenizer()
	assert.Nil(t, tok.Split("some text", 0))
	assert.Nil(t, tok.Split("  ", 4))
	assert.Equal(t, []string{"one two", "three four", "five"},
		tok.Split("one two three four five", 2))
}
