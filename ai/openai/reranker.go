package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stratumhq/corpus/ai"
)

const rerankTimeout = 30 * time.Second

// Reranker implements ai.Reranker against a /v1/rerank endpoint in the
// wire format used by Cohere-compatible reranking services (Jina,
// Infinity, vLLM).
type Reranker struct {
	host   string
	model  string
	client *http.Client
	logger *slog.Logger
}

// newReranker is an internal constructor that returns the concrete type.
func newReranker(config *ai.Config) (*Reranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.RerankerHost == "" {
		return nil, fmt.Errorf("reranker host not configured")
	}

	return &Reranker{
		host:   config.RerankerHost,
		model:  config.RerankerModel,
		client: &http.Client{Timeout: rerankTimeout},
		logger: slog.Default().With("component", "openai-reranker"),
	}, nil
}

// NewReranker creates a reranker using the provided configuration.
//
// Returns ai.Reranker interface to enforce abstraction.
func NewReranker(config *ai.Config) (ai.Reranker, error) {
	return newReranker(config)
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score returns one joint relevance score per candidate text, in input order.
func (r *Reranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}

	r.logger.Debug("scoring candidates", "model", r.model, "count", len(texts))

	payload, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: texts,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.host+"/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("rerank request failed", "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank request failed: %d, %s", resp.StatusCode, string(body))
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	if len(parsed.Results) != len(texts) {
		return nil, fmt.Errorf("rerank result mismatch. expected %d, received %d", len(texts), len(parsed.Results))
	}

	// The service returns results sorted by score; map back to input order.
	scores := make([]float64, len(texts))
	for _, result := range parsed.Results {
		if result.Index < 0 || result.Index >= len(scores) {
			return nil, fmt.Errorf("rerank result index %d out of range", result.Index)
		}
		scores[result.Index] = result.RelevanceScore
	}

	return scores, nil
}
