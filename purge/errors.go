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

package purge

import "errors"

var (
	// ErrGuardRequired indicates a nil tenant guard was provided.
	ErrGuardRequired = errors.New("tenant guard is required")

	// ErrTenantRepositoryRequired indicates a nil tenant repository was provided.
	ErrTenantRepositoryRequired = errors.New("tenant repository is required")

	// ErrDocumentRepositoryRequired indicates a nil document repository was provided.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrVectorStoreRequired indicates a nil vector store was provided.
	ErrVectorStoreRequired = errors.New("vector store is required")

	// ErrKeywordIndexRequired indicates a nil keyword index was provided.
	ErrKeywordIndexRequired = errors.New("keyword index is required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrPurgeIncomplete indicates derived entries survived a purge pass.
	// The reconciliation sweep retries until the count reaches zero; the
	// purged state is never asserted while this holds.
	ErrPurgeIncomplete = errors.New("purge incomplete")
)
