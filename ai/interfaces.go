package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use and deterministic
// for a given (text, model) pair.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the embedding model identifier. Vectors produced by
	// different models must never be mixed in scoring, so every stored
	// vector is tagged with this identifier.
	Model() string
}

// Reranker computes joint query-candidate relevance scores using a
// cross-encoder style model. Implementations must be side-effect-free
// and thread-safe for concurrent use.
type Reranker interface {
	// Score returns one relevance score per candidate text, in input order.
	// Higher scores mean higher relevance. Returns an error if the scoring
	// capability is unavailable; callers are expected to fall back to their
	// prior ranking rather than fail.
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Generator is the text-generation collaborator the retrieval core hands
// its output to. The core's contract ends at delivering the query and the
// assembled context; answer quality is the generator's concern.
type Generator interface {
	// Generate produces an answer to the query grounded in the supplied
	// context. The systemPrompt configures the generator's behavior.
	Generate(ctx context.Context, systemPrompt, query, contextText string) (string, error)
}

// Provider aggregates AI capabilities for convenient initialization and
// lifecycle management. Implementations may return a nil Reranker or
// Generator when the corresponding capability is not configured.
type Provider interface {
	// Embedder returns the text embedding service. Never nil.
	Embedder() Embedder

	// Reranker returns the joint scoring service, or nil when reranking
	// is not configured. Callers treat nil as "rerank disabled".
	Reranker() Reranker

	// Generator returns the generation collaborator, or nil when text
	// generation is not configured.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
