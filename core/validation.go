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

import "fmt"

// ValidateTenant validates a Tenant according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - EmbeddingModel must not be empty
//   - State must be a known lifecycle state
//
// NOT validated:
//   - Id ("" is valid before the registry assigns one)
//   - ChatModel (only needed when the generation collaborator is used)
func ValidateTenant(tenant *Tenant) error {
	if tenant == nil {
		return fmt.Errorf("%w: tenant is nil", ErrInvalidTenant)
	}

	if tenant.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTenant, ErrEmptyTenantName)
	}

	if tenant.EmbeddingModel == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTenant, ErrEmptyEmbeddingModel)
	}

	if err := ValidateTenantState(tenant.State); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTenant, err)
	}

	return nil
}

// ValidateDocument validates a Document according to domain rules.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentName)
	}

	if doc.Tenant == "" {
		return fmt.Errorf("%w: missing tenant", ErrInvalidDocument)
	}

	if err := ValidateDocumentState(doc.State); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Token-count bounds are a chunker configuration concern and are checked
// there; here only structural integrity is enforced.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.Document == "" {
		return fmt.Errorf("%w: missing document", ErrInvalidChunk)
	}

	if chunk.Ordinal < 0 {
		return fmt.Errorf("%w: negative ordinal %d", ErrInvalidChunk, chunk.Ordinal)
	}

	return nil
}

// ValidateTenantState validates that a TenantState has a valid value.
func ValidateTenantState(state TenantState) error {
	switch state {
	case TenantActive, TenantMarkedDeleted, TenantPurging, TenantPurged:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidTenantState, state)
	}
}

// ValidateDocumentState validates that a DocumentState has a valid value.
func ValidateDocumentState(state DocumentState) error {
	switch state {
	case DocumentActive, DocumentMarkedDeleted, DocumentPurged:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidDocumentState, state)
	}
}

// ValidTenantTransition reports whether a tenant lifecycle transition is
// allowed. States only move forward; re-asserting the current state is a
// no-op and allowed for idempotent retries.
func ValidTenantTransition(from, to TenantState) bool {
	if from == to {
		return true
	}
	switch from {
	case TenantActive:
		return to == TenantMarkedDeleted
	case TenantMarkedDeleted:
		return to == TenantPurging
	case TenantPurging:
		return to == TenantPurged
	default:
		return false
	}
}

// ValidDocumentTransition reports whether a document lifecycle transition
// is allowed.
func ValidDocumentTransition(from, to DocumentState) bool {
	if from == to {
		return true
	}
	switch from {
	case DocumentActive:
		return to == DocumentMarkedDeleted
	case DocumentMarkedDeleted:
		return to == DocumentPurged
	default:
		return false
	}
}
