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

import (
	"fmt"
	"math"
	"time"
)

// Defaults for retrieval tuning knobs.
const (
	DefaultVectorK       = 20
	DefaultKeywordK      = 20
	DefaultVectorWeight  = 0.7
	DefaultKeywordWeight = 0.3
	DefaultRerankTopK    = 10
	DefaultMinScore      = 0.7
	DefaultBudgetTokens  = 2000
	DefaultSignalTimeout = 5 * time.Second
	DefaultRerankTimeout = 5 * time.Second
)

// Config carries the tuning knobs of the retrieval pipeline.
// Invalid configuration fails construction; nothing is clamped silently.
type Config struct {
	// VectorK is how many candidates the vector signal requests.
	VectorK int
	// KeywordK is how many candidates the keyword signal requests.
	KeywordK int

	// VectorWeight and KeywordWeight blend the normalized signals.
	// They must be non-negative and sum to one.
	VectorWeight  float64
	KeywordWeight float64

	// RerankTopK is how many fused candidates the reranker scores.
	RerankTopK int
	// RerankEnabled toggles the rerank stage. A provider without a
	// reranker disables the stage regardless.
	RerankEnabled bool

	// MinScore is the relevance floor applied to the governing score:
	// the rerank score when reranked, the fused score otherwise.
	MinScore float64

	// BudgetTokens bounds the assembled context block.
	BudgetTokens int

	// SignalTimeout bounds each retrieval signal, embedding included.
	SignalTimeout time.Duration
	// RerankTimeout bounds the rerank call.
	RerankTimeout time.Duration
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() Config {
	return Config{
		VectorK:       DefaultVectorK,
		KeywordK:      DefaultKeywordK,
		VectorWeight:  DefaultVectorWeight,
		KeywordWeight: DefaultKeywordWeight,
		RerankTopK:    DefaultRerankTopK,
		RerankEnabled: true,
		MinScore:      DefaultMinScore,
		BudgetTokens:  DefaultBudgetTokens,
		SignalTimeout: DefaultSignalTimeout,
		RerankTimeout: DefaultRerankTimeout,
	}
}

// Validate checks the configuration for usability.
func (c Config) Validate() error {
	if c.VectorK <= 0 {
		return fmt.Errorf("%w: vector k %d", ErrInvalidLimit, c.VectorK)
	}
	if c.KeywordK <= 0 {
		return fmt.Errorf("%w: keyword k %d", ErrInvalidLimit, c.KeywordK)
	}
	if c.RerankTopK <= 0 {
		return fmt.Errorf("%w: rerank top-k %d", ErrInvalidLimit, c.RerankTopK)
	}
	if c.VectorWeight < 0 || c.KeywordWeight < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
	}
	if math.Abs(c.VectorWeight+c.KeywordWeight-1) > 1e-9 {
		return fmt.Errorf("%w: %g + %g must sum to 1", ErrInvalidWeights, c.VectorWeight, c.KeywordWeight)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("%w: %g outside [0, 1]", ErrInvalidThreshold, c.MinScore)
	}
	if c.BudgetTokens <= 0 {
		return fmt.Errorf("%w: %d tokens", ErrInvalidBudget, c.BudgetTokens)
	}
	if c.SignalTimeout <= 0 {
		return fmt.Errorf("%w: signal timeout %s", ErrInvalidLimit, c.SignalTimeout)
	}
	if c.RerankTimeout <= 0 {
		return fmt.Errorf("%w: rerank timeout %s", ErrInvalidLimit, c.RerankTimeout)
	}
	return nil
}
