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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidTenant indicates a Tenant failed validation.
	ErrInvalidTenant = errors.New("invalid tenant")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyTenantName indicates the tenant Name field is empty.
	ErrEmptyTenantName = errors.New("tenant name cannot be empty")

	// ErrEmptyEmbeddingModel indicates the tenant EmbeddingModel field is empty.
	ErrEmptyEmbeddingModel = errors.New("embedding model cannot be empty")

	// ErrEmptyDocumentName indicates the document Name field is empty.
	ErrEmptyDocumentName = errors.New("document name cannot be empty")

	// ErrEmptyChunkText indicates the chunk Text field is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrInvalidTenantState indicates an invalid TenantState value.
	ErrInvalidTenantState = errors.New("invalid tenant state")

	// ErrInvalidDocumentState indicates an invalid DocumentState value.
	ErrInvalidDocumentState = errors.New("invalid document state")

	// ErrInvalidStateTransition indicates a lifecycle transition that moves
	// backwards or skips the purge.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)
