package mock

import (
	"context"
	"strings"
)

// MockReranker is a test double for ai.Reranker.
// The default scoring is the fraction of query words present in the
// candidate text, which makes ordering assertions readable in tests.
type MockReranker struct {
	// ScoreFunc is called by Score if set.
	ScoreFunc func(ctx context.Context, query string, texts []string) ([]float64, error)

	callCount int
}

// NewMockReranker creates a mock reranker with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Score returns one relevance score per text, in input order.
func (m *MockReranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	m.callCount++

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, query, texts)
	}

	queryWords := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(texts))
	for i, text := range texts {
		scores[i] = overlapFraction(queryWords, strings.ToLower(text))
	}
	return scores, nil
}

// CallCount returns the number of times Score was called.
func (m *MockReranker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockReranker) Reset() {
	m.callCount = 0
	m.ScoreFunc = nil
}

func overlapFraction(queryWords []string, text string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	var hits int
	for _, word := range queryWords {
		if strings.Contains(text, word) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryWords))
}
