// Package mock provides deterministic test doubles for the ai capability
// interfaces. Embeddings are derived from an FNV hash of the input text so
// the same text always produces the same vector; reranking scores by query
// word overlap. Both allow behavior injection via function fields.
package mock
