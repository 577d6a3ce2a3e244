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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from a YAML file.
// Zero values fall back to defaults during Normalize; Validate rejects
// what cannot be defaulted.
type Config struct {
	// DataDir is the directory holding the badger and vector databases.
	DataDir string `yaml:"data_dir"`

	AI        AIConfig        `yaml:"ai"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Log       LogConfig       `yaml:"log"`
}

// IngestConfig configures how documents are tokenized for chunking.
type IngestConfig struct {
	// Tokenizer is "words" or "bpe". Empty selects "words".
	Tokenizer string `yaml:"tokenizer"`

	// Encoding names the BPE encoding, e.g. cl100k_base. Only used
	// when Tokenizer is "bpe".
	Encoding string `yaml:"encoding"`
}

// AIConfig configures the OpenAI-compatible upstream services.
type AIConfig struct {
	EmbeddingHost  string `yaml:"embedding_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	RerankerHost   string `yaml:"reranker_host"`
	RerankerModel  string `yaml:"reranker_model"`
	ChatHost       string `yaml:"chat_host"`
	ChatModel      string `yaml:"chat_model"`
}

// RetrievalConfig overrides retrieval tuning knobs. Zero values keep
// the built-in defaults.
type RetrievalConfig struct {
	VectorK       int     `yaml:"vector_k"`
	KeywordK      int     `yaml:"keyword_k"`
	VectorWeight  float64 `yaml:"vector_weight"`
	KeywordWeight float64 `yaml:"keyword_weight"`
	RerankTopK    int     `yaml:"rerank_top_k"`
	MinScore      float64 `yaml:"min_score"`
	BudgetTokens  int     `yaml:"budget_tokens"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Load reads and parses the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills unset fields with defaults.
func (c *Config) Normalize() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.AI.EmbeddingHost == "" {
		c.AI.EmbeddingHost = "http://localhost:11434/v1"
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = "nomic-embed-text"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects configuration that cannot work.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Ingest.Tokenizer {
	case "", "words", "bpe":
	default:
		return fmt.Errorf("invalid tokenizer %q", c.Ingest.Tokenizer)
	}
	if c.Retrieval.VectorWeight < 0 || c.Retrieval.KeywordWeight < 0 {
		return fmt.Errorf("retrieval weights must be non-negative")
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("min_score %g outside [0, 1]", c.Retrieval.MinScore)
	}
	return nil
}
