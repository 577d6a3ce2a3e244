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

package mock

import "github.com/stratumhq/corpus/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder, reranker and generator instances.
type MockProvider struct {
	embedder  *MockEmbedder
	reranker  *MockReranker
	generator *MockGenerator
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockReranker() to access concrete types for
// test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		reranker:  NewMockReranker(),
		generator: NewMockGenerator(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// A nil reranker or generator models a deployment without that capability.
func NewMockProviderWithServices(embedder *MockEmbedder, reranker *MockReranker, generator *MockGenerator) ai.Provider {
	return &MockProvider{
		embedder:  embedder,
		reranker:  reranker,
		generator: generator,
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Reranker returns the mock scoring service, or nil when unset.
func (p *MockProvider) Reranker() ai.Reranker {
	if p.reranker == nil {
		return nil
	}
	return p.reranker
}

// Generator returns the mock generator, or nil when unset.
func (p *MockProvider) Generator() ai.Generator {
	if p.generator == nil {
		return nil
	}
	return p.generator
}

// Close is a no-op for mocks.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the concrete mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockReranker returns the concrete mock reranker for test assertions.
func (p *MockProvider) GetMockReranker() *MockReranker {
	return p.reranker
}

// GetMockGenerator returns the concrete mock generator for test assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}
