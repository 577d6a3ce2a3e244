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

package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/stratumhq/corpus/ai"
	"github.com/stratumhq/corpus/ai/openai"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/ingest"
	"github.com/stratumhq/corpus/purge"
	"github.com/stratumhq/corpus/retrieval"
	"github.com/stratumhq/corpus/storage"
	"github.com/stratumhq/corpus/storage/badger"
	"github.com/stratumhq/corpus/storage/chromem"
	"github.com/stratumhq/corpus/tenant"
)

// RefusalAnswer is returned by Chat when retrieval finds nothing
// relevant enough to ground an answer.
const RefusalAnswer = "The information is not available in the provided knowledge base."

// DefaultSystemPrompt configures generation for tenants without a
// prompt of their own.
const DefaultSystemPrompt = "You are a helpful assistant. Answer questions based on the provided context."

// ErrGenerationUnavailable indicates Chat was called on an engine whose
// provider has no generator configured.
var ErrGenerationUnavailable = errors.New("generation is not configured")

// Engine wires storage, tenancy, ingestion, retrieval and purging into
// one retrieval core. It is the single entry point embedders of the
// library use.
type Engine struct {
	backend   *badger.Backend
	tenants   storage.TenantRepository
	docs      storage.DocumentRepository
	vectors   storage.VectorStore
	keywords  storage.KeywordIndex
	guard     *tenant.Guard
	keyring   *tenant.Keyring
	provider  ai.Provider
	pipeline  *ingest.Pipeline
	retriever *retrieval.Retriever
	purger    *purge.Purger
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig        *ai.Config
	provider        ai.Provider
	tokenizer       ingest.Tokenizer
	retrievalConfig *retrieval.Config
	purgeConfig     *purge.Config
}

// WithAIConfig sets the AI service configuration used to build the
// OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the
// OpenAI-compatible default. Tests inject mocks this way.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithTokenizer replaces the word tokenizer used for chunking, e.g.
// with a BPE tokenizer built by ingest.NewTokenizer.
func WithTokenizer(tok ingest.Tokenizer) EngineOption {
	return func(o *engineOptions) {
		o.tokenizer = tok
	}
}

// WithRetrievalConfig replaces the default retrieval tuning.
func WithRetrievalConfig(config retrieval.Config) EngineOption {
	return func(o *engineOptions) {
		o.retrievalConfig = &config
	}
}

// WithPurgeConfig replaces the default purge tuning.
func WithPurgeConfig(config *purge.Config) EngineOption {
	return func(o *engineOptions) {
		o.purgeConfig = config
	}
}

// NewEngine opens an engine rooted at filePath. An empty path opens
// everything in memory, which is what tests want.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	inMemory := filePath == ""
	backend, err := badger.OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	tenants, err := badger.NewTenantRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	docs, err := badger.NewDocumentRepository(backend)
	if err != nil {
		tenants.Close()
		backend.Close()
		return nil, err
	}

	keywords, err := badger.NewKeywordIndex(backend)
	if err != nil {
		docs.Close()
		tenants.Close()
		backend.Close()
		return nil, err
	}

	vectorPath := ""
	if !inMemory {
		vectorPath = filepath.Join(filePath, "vectors")
	}
	vectors, err := chromem.NewStore(vectorPath, inMemory, backend)
	if err != nil {
		docs.Close()
		tenants.Close()
		backend.Close()
		return nil, err
	}

	guard, err := tenant.NewGuard(tenants)
	if err != nil {
		docs.Close()
		tenants.Close()
		backend.Close()
		return nil, err
	}

	keyring, err := tenant.NewKeyring(tenants, guard)
	if err != nil {
		docs.Close()
		tenants.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			docs.Close()
			tenants.Close()
			backend.Close()
			return nil, err
		}
	}

	pipelineOpts := []ingest.Option{}
	if options.tokenizer != nil {
		chunker, err := ingest.NewChunker(options.tokenizer)
		if err != nil {
			provider.Close()
			docs.Close()
			tenants.Close()
			backend.Close()
			return nil, err
		}
		pipelineOpts = append(pipelineOpts, ingest.WithChunker(chunker))
	}
	pipeline, err := ingest.NewPipeline(guard, docs, vectors, keywords, provider.Embedder(), pipelineOpts...)
	if err != nil {
		provider.Close()
		docs.Close()
		tenants.Close()
		backend.Close()
		return nil, err
	}

	retrieverOpts := []retrieval.Option{}
	if options.retrievalConfig != nil {
		retrieverOpts = append(retrieverOpts, retrieval.WithConfig(*options.retrievalConfig))
	}
	retriever, err := retrieval.NewRetriever(guard, docs, vectors, keywords, provider, retrieverOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		docs.Close()
		tenants.Close()
		backend.Close()
		return nil, err
	}

	purgerOpts := []purge.Option{}
	if options.purgeConfig != nil {
		purgerOpts = append(purgerOpts, purge.WithConfig(options.purgeConfig))
	}
	purger, err := purge.NewPurger(guard, tenants, docs, vectors, keywords, purgerOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		docs.Close()
		tenants.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:   backend,
		tenants:   tenants,
		docs:      docs,
		vectors:   vectors,
		keywords:  keywords,
		guard:     guard,
		keyring:   keyring,
		provider:  provider,
		pipeline:  pipeline,
		retriever: retriever,
		purger:    purger,
		logger:    slog.Default(),
	}, nil
}

// CreateTenant registers a new tenant in the active state.
func (e *Engine) CreateTenant(ctx context.Context, t *core.Tenant) (*core.Tenant, error) {
	if t.State == 0 {
		t.State = core.TenantActive
	}
	if err := core.ValidateTenant(t); err != nil {
		return nil, err
	}
	return e.tenants.AddTenant(ctx, t)
}

// GetTenant retrieves a tenant in any lifecycle state.
func (e *Engine) GetTenant(ctx context.Context, id core.TenantID) (*core.Tenant, error) {
	return e.tenants.GetTenant(ctx, id)
}

// ListTenants retrieves all tenants, in any state.
func (e *Engine) ListTenants(ctx context.Context) ([]*core.Tenant, error) {
	return e.tenants.ListTenants(ctx)
}

// UpdateTenant updates a tenant's mutable configuration.
func (e *Engine) UpdateTenant(ctx context.Context, t *core.Tenant) (*core.Tenant, error) {
	if err := core.ValidateTenant(t); err != nil {
		return nil, err
	}
	return e.tenants.UpdateTenant(ctx, t)
}

// DeleteTenant marks a tenant deleted and schedules the purge of
// everything it owns. Returns as soon as the mark lands.
func (e *Engine) DeleteTenant(ctx context.Context, id core.TenantID) error {
	return e.purger.MarkTenantDeleted(ctx, id)
}

// IssueKey creates an API key for the tenant. The raw key is returned
// exactly once and never stored.
func (e *Engine) IssueKey(ctx context.Context, id core.TenantID) (string, error) {
	return e.keyring.Issue(ctx, id)
}

// Authenticate resolves a raw API key to its owning tenant.
func (e *Engine) Authenticate(ctx context.Context, rawKey string) (core.TenantID, error) {
	return e.keyring.Authenticate(ctx, rawKey)
}

// Ingest processes one document for the tenant.
func (e *Engine) Ingest(ctx context.Context, id core.TenantID, name, text string) (*core.Document, error) {
	return e.pipeline.Ingest(ctx, id, name, text)
}

// ListDocuments retrieves the tenant's document catalog.
func (e *Engine) ListDocuments(ctx context.Context, id core.TenantID) ([]*core.Document, error) {
	return e.docs.ListDocuments(ctx, id)
}

// DeleteDocument marks a document deleted and schedules its purge.
func (e *Engine) DeleteDocument(ctx context.Context, id core.TenantID, docID core.DocumentID) error {
	return e.purger.MarkDocumentDeleted(ctx, id, docID)
}

// Retrieve answers a query with the tenant's knowledge base.
func (e *Engine) Retrieve(ctx context.Context, id core.TenantID, query string) (*retrieval.Result, error) {
	return e.retriever.Retrieve(ctx, id, query)
}

// Chat retrieves context for the query and hands it to the generation
// collaborator. An insufficient retrieval yields the canonical refusal,
// never a fabricated answer. The retrieval result is returned alongside
// the answer so callers can surface attribution.
func (e *Engine) Chat(ctx context.Context, id core.TenantID, query string) (string, *retrieval.Result, error) {
	t, _, err := e.guard.Resolve(ctx, id)
	if err != nil {
		return "", nil, err
	}

	result, err := e.retriever.Retrieve(ctx, id, query)
	if err != nil {
		return "", nil, err
	}
	if result.Insufficient {
		return RefusalAnswer, result, nil
	}

	generator := e.provider.Generator()
	if generator == nil {
		return "", result, ErrGenerationUnavailable
	}

	systemPrompt := t.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	answer, err := generator.Generate(ctx, systemPrompt, query, renderContext(result.Context))
	if err != nil {
		return "", result, fmt.Errorf("generating answer: %w", err)
	}
	return answer, result, nil
}

// Sweep runs one reconciliation pass over marked tenants and documents.
func (e *Engine) Sweep(ctx context.Context) (*purge.SweepReport, error) {
	return e.purger.Sweep(ctx)
}

// renderContext flattens the assembled block into the text handed to
// generation, one attributed section per entry.
func renderContext(block core.ContextBlock) string {
	var b strings.Builder
	for i, entry := range block.Entries {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		if entry.Section != "" {
			fmt.Fprintf(&b, "[%s]\n", entry.Section)
		}
		b.WriteString(entry.Text)
	}
	return b.String()
}

// Close releases every resource the engine holds.
func (e *Engine) Close() error {
	e.purger.Release()
	e.pipeline.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.docs.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := e.tenants.Close(); err != nil {
		e.logger.Error("error closing tenant repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
