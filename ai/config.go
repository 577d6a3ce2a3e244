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

package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI capability providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// RerankerHost is the base URL for the reranking service API.
	// Empty disables reranking; retrieval then passes fused order through.
	RerankerHost string

	// ChatHost is the base URL for the chat completion API used by the
	// generation collaborator. Empty disables generation; retrieval-only
	// deployments leave this unset.
	ChatHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "nomic-embed-text", "text-embedding-3-small"
	EmbeddingModel string

	// RerankerModel is the model identifier for joint relevance scoring.
	// Example: "bge-reranker-v2-m3"
	RerankerModel string

	// ChatModel is the default chat model for generation. Tenants may
	// override it with their own configured model.
	ChatModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithRerankerHost sets the reranking service host URL.
func WithRerankerHost(host string) ConfigOption {
	return func(c *Config) {
		c.RerankerHost = host
	}
}

// WithChatHost sets the chat completion host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithHost sets embedding, reranker and chat hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.RerankerHost = host
		c.ChatHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithRerankerModel sets the reranker model identifier.
func WithRerankerModel(model string) ConfigOption {
	return func(c *Config) {
		c.RerankerModel = model
	}
}

// WithChatModel sets the default chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. Reranking and generation share the
// embedding host by default.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		RerankerHost:   "",
		ChatHost:       defaultHost,
		EmbeddingModel: "nomic-embed-text",
		RerankerModel:  "bge-reranker-v2-m3",
		ChatModel:      "llama3.1",
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Hosts get the /v1 suffix required by most OpenAI-compatible APIs
// (Ollama, LocalAI, vLLM, etc) when it is missing.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.RerankerHost = normalizeHost(c.RerankerHost)
	c.ChatHost = normalizeHost(c.ChatHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
// Configuration errors are fatal at setup and never surface mid-pipeline.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.RerankerHost != "" && c.RerankerModel == "" {
		return errors.New("ai config: RerankerModel is required when RerankerHost is set")
	}
	if c.ChatHost != "" && c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required when ChatHost is set")
	}
	return nil
}
