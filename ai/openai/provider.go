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

package openai

import (
	"log/slog"

	"github.com/stratumhq/corpus/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// Reranker and Generator are optional: when their hosts are not
// configured the accessors return nil and callers treat the capability
// as disabled.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	reranker  *Reranker
	generator *Generator
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:   config,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}

	if config.RerankerHost != "" {
		reranker, err := newReranker(config)
		if err != nil {
			return nil, err
		}
		p.reranker = reranker
	}

	if config.ChatHost != "" {
		generator, err := newGenerator(config)
		if err != nil {
			return nil, err
		}
		p.generator = generator
	}

	return p, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Reranker returns the joint scoring service, or nil when not configured.
func (p *Provider) Reranker() ai.Reranker {
	if p.reranker == nil {
		return nil
	}
	return p.reranker
}

// Generator returns the generation collaborator, or nil when not configured.
func (p *Provider) Generator() ai.Generator {
	if p.generator == nil {
		return nil
	}
	return p.generator
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
