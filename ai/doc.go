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


// Package ai provides abstractions for the external model capabilities the
// retrieval core consumes.
//
// The package defines interfaces for text embedding, cross-encoder
// reranking and generation handoff. The core depends only on these
// abstractions; model access lives in implementation sub-packages:
//
//   - ai/openai: production implementation against OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles with no external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types to enforce abstraction. Mock constructors return
// concrete types so tests can inject behavior and assert call counts.
//
// All capabilities are treated as black boxes: the embedder must be
// deterministic per (text, model), the reranker order-preserving and
// side-effect-free. Failures of either are recoverable upstream-capability
// failures, not fatal errors; the retrieval pipeline degrades per its own
// rules.
package ai
