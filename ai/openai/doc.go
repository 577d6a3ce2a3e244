// Package openai implements the ai capability interfaces against
// OpenAI-compatible HTTP APIs (Ollama, LocalAI, vLLM and hosted services).
//
// Embedding and generation go through langchaingo's openai client;
// reranking uses the Cohere-compatible /v1/rerank wire format since the
// OpenAI API surface has no reranking endpoint.
package openai
