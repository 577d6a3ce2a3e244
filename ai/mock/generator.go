package mock

import (
	"context"
	"fmt"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, systemPrompt, query, contextText string) (string, error)

	callCount int
}

// NewMockGenerator creates a mock generator with default echo behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a canned answer referencing the query.
func (m *MockGenerator) Generate(ctx context.Context, systemPrompt, query, contextText string) (string, error) {
	m.callCount++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, query, contextText)
	}

	return fmt.Sprintf("mock answer for: %s", query), nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
}
