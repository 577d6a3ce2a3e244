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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/stratumhq/corpus/ai"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
	"github.com/stratumhq/corpus/tenant"
)

// Result is the outcome of one retrieval request. It is ephemeral and
// never persisted.
type Result struct {
	// Candidates is the final ranking after fusion, optional reranking
	// and thresholding. Empty when Insufficient is set.
	Candidates []core.Candidate

	// Context is the assembled, budget-bounded context block.
	Context core.ContextBlock

	// Insufficient means retrieval succeeded but nothing cleared the
	// relevance threshold. Callers must refuse rather than answer from
	// thin air.
	Insufficient bool

	// Degraded means one retrieval signal failed and the ranking rests
	// on the other alone.
	Degraded bool
	// DegradedReason names the failed signal when Degraded is set.
	DegradedReason string

	// RerankSkipped means the rerank stage was requested but scoring
	// failed, so the fused order passed through.
	RerankSkipped bool
}

// Retriever answers queries over a tenant's knowledge base with hybrid
// vector plus keyword retrieval, score fusion, optional cross-encoder
// reranking, relevance thresholding and context assembly.
type Retriever struct {
	guard    *tenant.Guard
	docs     storage.DocumentRepository
	vectors  storage.VectorStore
	keywords storage.KeywordIndex
	embedder ai.Embedder
	reranker ai.Reranker
	config   Config
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithConfig replaces the default configuration.
func WithConfig(config Config) Option {
	return func(r *Retriever) error {
		if err := config.Validate(); err != nil {
			return err
		}
		r.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a retriever. A provider without a reranker
// disables the rerank stage.
func NewRetriever(
	guard *tenant.Guard,
	docs storage.DocumentRepository,
	vectors storage.VectorStore,
	keywords storage.KeywordIndex,
	provider ai.Provider,
	opts ...Option,
) (*Retriever, error) {
	if guard == nil {
		return nil, ErrGuardRequired
	}
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if keywords == nil {
		return nil, ErrKeywordIndexRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	r := &Retriever{
		guard:    guard,
		docs:     docs,
		vectors:  vectors,
		keywords: keywords,
		embedder: provider.Embedder(),
		reranker: provider.Reranker(),
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve answers a query for the tenant.
func (r *Retriever) Retrieve(ctx context.Context, id core.TenantID, query string) (*Result, error) {
	return r.RetrieveWithMonitor(ctx, id, query, nil)
}

// RetrieveWithMonitor answers a query with monitoring. The monitor
// receives callbacks at each stage of the retrieval process.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, id core.TenantID, query string, monitor RetrievalMonitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	_, scope, err := r.guard.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	monitor.Start(query)
	result := &Result{}

	// Both signals run concurrently, each under its own timeout, so one
	// slow upstream cannot starve the other.
	vectorHits, keywordHits := r.runSignals(ctx, scope, query, result, monitor)
	if vectorHits == nil && keywordHits == nil && result.Degraded {
		return nil, fmt.Errorf("%w: both signals failed: %s", ErrRetrievalFailed, result.DegradedReason)
	}

	candidates := fuse(vectorHits, keywordHits, r.config.VectorWeight, r.config.KeywordWeight)
	candidates, err = r.filterDeleted(ctx, id, candidates)
	if err != nil {
		return nil, err
	}
	sortCandidates(candidates)
	monitor.AfterFusion(candidates)

	candidates = r.rerank(ctx, query, candidates, result, monitor)

	kept := candidates[:0:0]
	for _, candidate := range candidates {
		if governingScore(candidate) >= r.config.MinScore {
			kept = append(kept, candidate)
		}
	}
	monitor.AfterThreshold(kept)

	if len(kept) == 0 {
		result.Insufficient = true
		result.Candidates = []core.Candidate{}
		monitor.Finish(result)
		r.logger.Info("retrieval found nothing relevant",
			"tenant", id, "degraded", result.Degraded)
		return result, nil
	}

	result.Candidates = kept
	result.Context = assembleContext(kept, r.config.BudgetTokens)
	monitor.Finish(result)

	r.logger.Debug("retrieval complete",
		"tenant", id,
		"candidates", len(kept),
		"context_tokens", result.Context.TotalTokens,
		"degraded", result.Degraded,
		"rerank_skipped", result.RerankSkipped)
	return result, nil
}

// runSignals executes the vector and keyword signals concurrently.
// A nil slice marks a failed signal; an empty slice is a signal that
// succeeded and found nothing.
func (r *Retriever) runSignals(ctx context.Context, scope core.Scope, query string, result *Result, monitor RetrievalMonitor) ([]storage.VectorHit, []storage.KeywordHit) {
	var (
		vectorHits  []storage.VectorHit
		keywordHits []storage.KeywordHit
		vectorErr   error
		keywordErr  error
	)

	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		sctx, cancel := context.WithTimeout(ctx, r.config.SignalTimeout)
		defer cancel()

		embedding, err := r.embedder.EmbedText(sctx, query)
		if err != nil {
			vectorErr = fmt.Errorf("embedding query: %w", err)
			return
		}
		hits, err := r.vectors.Query(sctx, scope, embedding, r.config.VectorK)
		if err != nil {
			vectorErr = fmt.Errorf("vector query: %w", err)
			return
		}
		vectorHits = hits
		if vectorHits == nil {
			vectorHits = []storage.VectorHit{}
		}
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		sctx, cancel := context.WithTimeout(ctx, r.config.SignalTimeout)
		defer cancel()

		hits, err := r.keywords.Search(sctx, scope, query, r.config.KeywordK)
		if err != nil {
			keywordErr = fmt.Errorf("keyword search: %w", err)
			return
		}
		keywordHits = hits
		if keywordHits == nil {
			keywordHits = []storage.KeywordHit{}
		}
	}()

	<-done
	<-done

	monitor.AfterVectorSearch(vectorHits)
	monitor.AfterKeywordSearch(keywordHits)

	switch {
	case vectorErr != nil && keywordErr != nil:
		result.Degraded = true
		result.DegradedReason = fmt.Sprintf("vector: %v; keyword: %v", vectorErr, keywordErr)
		monitor.SignalDegraded(result.DegradedReason, errors.Join(vectorErr, keywordErr))
	case vectorErr != nil:
		result.Degraded = true
		result.DegradedReason = "vector signal failed"
		monitor.SignalDegraded(result.DegradedReason, vectorErr)
		r.logger.Warn("degrading to keyword-only retrieval", "tenant", scope.Tenant, "err", vectorErr)
	case keywordErr != nil:
		result.Degraded = true
		result.DegradedReason = "keyword signal failed"
		monitor.SignalDegraded(result.DegradedReason, keywordErr)
		r.logger.Warn("degrading to vector-only retrieval", "tenant", scope.Tenant, "err", keywordErr)
	}

	return vectorHits, keywordHits
}

// filterDeleted drops candidates whose document is no longer active and
// annotates survivors with ingestion time for tie-breaking. Marked
// documents disappear from results the moment the mark lands, before
// the purge ever runs.
func (r *Retriever) filterDeleted(ctx context.Context, id core.TenantID, candidates []core.Candidate) ([]core.Candidate, error) {
	cache := make(map[core.DocumentID]*core.Document)

	kept := candidates[:0:0]
	for _, candidate := range candidates {
		doc, ok := cache[candidate.Document]
		if !ok {
			var err error
			doc, err = r.docs.GetDocument(ctx, id, candidate.Document)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					cache[candidate.Document] = nil
					continue
				}
				return nil, err
			}
			cache[candidate.Document] = doc
		}
		if doc == nil || doc.State != core.DocumentActive {
			continue
		}
		candidate.IngestedAt = doc.IngestedAt
		kept = append(kept, candidate)
	}
	return kept, nil
}

// rerank scores the top fused candidates with the cross-encoder and
// re-sorts that head by rerank score. Scoring failure passes the fused
// order through with RerankSkipped set; relevance degrades, availability
// does not.
func (r *Retriever) rerank(ctx context.Context, query string, candidates []core.Candidate, result *Result, monitor RetrievalMonitor) []core.Candidate {
	if !r.config.RerankEnabled || r.reranker == nil || len(candidates) == 0 {
		monitor.AfterRerank(candidates, false)
		return candidates
	}

	top := len(candidates)
	if top > r.config.RerankTopK {
		top = r.config.RerankTopK
	}
	head := candidates[:top]

	texts := make([]string, len(head))
	for i, candidate := range head {
		texts[i] = candidate.Text
	}

	sctx, cancel := context.WithTimeout(ctx, r.config.RerankTimeout)
	defer cancel()

	scores, err := r.reranker.Score(sctx, query, texts)
	if err != nil || len(scores) != len(head) {
		if err == nil {
			err = fmt.Errorf("reranker returned %d scores for %d candidates", len(scores), len(head))
		}
		result.RerankSkipped = true
		monitor.AfterRerank(candidates, true)
		r.logger.Warn("rerank failed, passing fused order through", "err", err)
		return candidates
	}

	for i := range head {
		head[i].RerankScore = scores[i]
		head[i].Reranked = true
	}
	sort.SliceStable(head, func(i, j int) bool {
		if head[i].RerankScore != head[j].RerankScore {
			return head[i].RerankScore > head[j].RerankScore
		}
		return head[i].FusedScore > head[j].FusedScore
	})

	monitor.AfterRerank(candidates, false)
	return candidates
}
