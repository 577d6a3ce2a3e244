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

package retrieval

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

	// ErrProviderRequired indicates a nil AI provider was provided.
	ErrProviderRequired = errors.New("ai provider is required")

	// ErrEmptyQuery indicates a retrieval request with no query text.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrRetrievalFailed indicates both retrieval signals failed, so no
	// ranking could be produced at all. Distinct from an Insufficient
	// result, which is a successful retrieval with nothing relevant.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrInvalidLimit indicates a non-positive candidate limit.
	// This is a configuration error and fatal at setup.
	ErrInvalidLimit = errors.New("invalid candidate limit")

	// ErrInvalidWeights indicates fusion weights that are negative or do
	// not sum to one.
	ErrInvalidWeights = errors.New("invalid fusion weights")

	// ErrInvalidThreshold indicates a relevance threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("invalid relevance threshold")

	// ErrInvalidBudget indicates a non-positive context token budget.
	ErrInvalidBudget = errors.New("invalid context token budget")
)
