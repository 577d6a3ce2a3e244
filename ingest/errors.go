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

import "errors"

var (
	// ErrGuardRequired indicates a nil tenant guard was provided.
	ErrGuardRequired = errors.New("tenant guard is required")

	// ErrDocumentRepositoryRequired indicates a nil document repository was provided.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrVectorStoreRequired indicates a nil vector store was provided.
	ErrVectorStoreRequired = errors.New("vector store is required")

	// ErrKeywordIndexRequired indicates a nil keyword index was provided.
	ErrKeywordIndexRequired = errors.New("keyword index is required")

	// ErrEmbedderRequired indicates a nil embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrTokenizerRequired indicates a nil tokenizer was provided.
	ErrTokenizerRequired = errors.New("tokenizer is required")

	// ErrUnknownTokenizer indicates an unrecognized tokenizer kind.
	ErrUnknownTokenizer = errors.New("unknown tokenizer")

	// ErrInvalidChunkBounds indicates the chunk token bounds are unusable.
	// This is a configuration error and fatal at setup.
	ErrInvalidChunkBounds = errors.New("invalid chunk token bounds")

	// ErrInvalidOverlap indicates the overlap token range is unusable.
	ErrInvalidOverlap = errors.New("invalid overlap token range")

	// ErrEmptyDocumentName indicates an ingest request without a document name.
	ErrEmptyDocumentName = errors.New("document name is empty")

	// ErrDocumentDeleting indicates the name belongs to a document whose
	// deletion is still in flight. The name becomes available again once
	// the purge finishes.
	ErrDocumentDeleting = errors.New("document is being deleted")
)
