package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stratumhq/corpus/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
// It is the handoff point for assembled context; the retrieval core's
// contract ends here.
type Generator struct {
	client *openai.LLM
	model  string
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ChatHost == "" {
		return nil, fmt.Errorf("chat host not configured")
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		model:  config.ChatModel,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate produces an answer to the query grounded in the supplied context.
func (g *Generator) Generate(ctx context.Context, systemPrompt, query, contextText string) (string, error) {
	g.logger.Debug("generating response", "model", g.model, "contextLength", len(contextText))

	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, query)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := g.client.GenerateContent(ctx, messages)
	if err != nil {
		g.logger.Error("generation failed", "model", g.model, "err", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}

	return resp.Choices[0].Content, nil
}
