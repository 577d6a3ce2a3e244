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

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/stratumhq/corpus/ai"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
	"github.com/stratumhq/corpus/tenant"
)

// Pipeline turns raw document text into chunks, embeddings and keyword
// postings, all scoped through the tenant guard. Chunks of one document
// are produced sequentially, then embedded and upserted concurrently in
// batches.
type Pipeline struct {
	guard     *tenant.Guard
	docs      storage.DocumentRepository
	vectors   storage.VectorStore
	keywords  storage.KeywordIndex
	embedder  ai.Embedder
	pre       *Preprocessor
	chunker   *Chunker
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding and
// upserts. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		if chunker == nil {
			return fmt.Errorf("chunker must not be nil")
		}
		p.chunker = chunker
		return nil
	}
}

// WithBatchSize sets how many chunks one embedding call carries.
// Default is 16.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	guard *tenant.Guard,
	docs storage.DocumentRepository,
	vectors storage.VectorStore,
	keywords storage.KeywordIndex,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
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
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := NewChunker(NewWordTokenizer())
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		guard:     guard,
		docs:      docs,
		vectors:   vectors,
		keywords:  keywords,
		embedder:  embedder,
		pre:       NewPreprocessor(),
		chunker:   chunker,
		pool:      pool,
		batchSize: 16,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	return p, nil
}

// Ingest processes one document synchronously: normalize, chunk, embed
// and upsert. Re-ingesting an unchanged document is a no-op; a changed
// document fully supersedes its previous chunks. Returns the catalog
// record.
func (p *Pipeline) Ingest(ctx context.Context, id core.TenantID, name, rawText string) (*core.Document, error) {
	if name == "" {
		return nil, ErrEmptyDocumentName
	}

	_, scope, err := p.guard.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	normalized := p.pre.Normalize(rawText)
	hash := core.ContentHash(normalized)

	existing, err := p.docs.GetDocumentByName(ctx, id, name)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	// A marked document still owns its ID and derived entries until the
	// purge confirms them gone. Reusing the ID here would race the purge
	// and resurrect a half-deleted document, so the name stays taken.
	if existing != nil && existing.State != core.DocumentActive {
		return nil, fmt.Errorf("%w: %s", ErrDocumentDeleting, name)
	}
	if existing != nil && existing.ContentHash == hash {
		p.logger.Debug("document unchanged, skipping", "tenant", id, "document", existing.Id, "name", name)
		return existing, nil
	}

	docID := core.NewDocumentID()
	if existing != nil {
		docID = existing.Id
	}

	chunks := p.chunker.Chunk(docID, normalized)

	// Full replace: drop the previous version's derived entries first so
	// nothing stale survives a shrinking document.
	if existing != nil {
		if err := p.vectors.DeleteDocument(ctx, scope, docID); err != nil {
			return nil, fmt.Errorf("failed to supersede vectors: %w", err)
		}
		if err := p.keywords.DeleteDocument(ctx, scope, docID); err != nil {
			return nil, fmt.Errorf("failed to supersede keyword entries: %w", err)
		}
	}

	if err := p.upsertChunks(ctx, scope, docID, chunks); err != nil {
		return nil, err
	}

	doc := &core.Document{
		Id:          docID,
		Tenant:      id,
		Name:        name,
		ContentHash: hash,
		ChunkCount:  len(chunks),
		State:       core.DocumentActive,
	}
	stored, err := p.docs.PutDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	p.logger.Info("document ingested",
		"tenant", id, "document", stored.Id, "name", name, "chunks", len(chunks))
	return stored, nil
}

// IngestAsync submits a document for background ingestion. Errors are
// logged, not returned; retrying with Ingest is safe because upserts are
// idempotent.
func (p *Pipeline) IngestAsync(id core.TenantID, name, rawText string) error {
	return p.pool.Submit(func() {
		if _, err := p.Ingest(context.Background(), id, name, rawText); err != nil {
			p.logger.Error("background ingestion failed", "tenant", id, "name", name, "err", err)
		}
	})
}

// upsertChunks embeds and stores chunk batches concurrently. Any batch
// failure fails the whole ingest; a retry re-upserts by the same chunk
// IDs.
func (p *Pipeline) upsertChunks(ctx context.Context, scope core.Scope, docID core.DocumentID, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.upsertBatch(ctx, scope, docID, batch); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()
	return firstErr
}

func (p *Pipeline) upsertBatch(ctx context.Context, scope core.Scope, docID core.DocumentID, batch []core.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
	}

	entries := make([]storage.VectorEntry, len(batch))
	for i, chunk := range batch {
		entries[i] = storage.VectorEntry{
			Chunk:      chunk.Id,
			Document:   docID,
			Ordinal:    chunk.Ordinal,
			Section:    chunk.Section,
			Text:       chunk.Text,
			TokenCount: chunk.TokenCount,
			Model:      p.embedder.Model(),
			Vector:     vectors[i],
		}
	}
	if err := p.vectors.Upsert(ctx, scope, entries); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	for _, chunk := range batch {
		if err := p.keywords.Index(ctx, scope, chunk); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", chunk.Id, err)
		}
	}
	return nil
}

// Release releases the worker pool. The pipeline should not be used
// after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
