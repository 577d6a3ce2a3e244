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

package purge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
	"github.com/stratumhq/corpus/tenant"
)

// Config holds configuration for purge operations.
type Config struct {
	// MaxRetries is the maximum number of attempts per delete pass.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Purger implements two-phase deletion. The mark phase transitions
// lifecycle state and returns immediately; marked items vanish from
// retrieval at once because the guard and the document catalog reject
// them. The purge phase deletes derived entries asynchronously with
// bounded retries, verifies zero remain, and only then asserts the
// purged state. Every step is idempotent, so the reconciliation sweep
// can re-drive any interrupted purge.
type Purger struct {
	guard    *tenant.Guard
	tenants  storage.TenantRepository
	docs     storage.DocumentRepository
	vectors  storage.VectorStore
	keywords storage.KeywordIndex
	pool     *ants.Pool
	config   *Config
	logger   *slog.Logger
}

// Option configures a Purger.
type Option func(*Purger) error

// WithConfig replaces the default purge configuration.
func WithConfig(config *Config) Option {
	return func(p *Purger) error {
		if config == nil {
			config = DefaultConfig()
		}
		if config.MaxRetries <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.config = config
		return nil
	}
}

// WithPoolSize sets the worker pool size for background purges.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Purger) error {
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

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Purger) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPurger creates a purger.
func NewPurger(
	guard *tenant.Guard,
	tenants storage.TenantRepository,
	docs storage.DocumentRepository,
	vectors storage.VectorStore,
	keywords storage.KeywordIndex,
	opts ...Option,
) (*Purger, error) {
	if guard == nil {
		return nil, ErrGuardRequired
	}
	if tenants == nil {
		return nil, ErrTenantRepositoryRequired
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

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Purger{
		guard:    guard,
		tenants:  tenants,
		docs:     docs,
		vectors:  vectors,
		keywords: keywords,
		pool:     pool,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	return p, nil
}

// MarkDocumentDeleted marks a document deleted and schedules its purge.
// The document stops appearing in retrieval as soon as this returns.
// Marking an already-marked document is a no-op.
func (p *Purger) MarkDocumentDeleted(ctx context.Context, id core.TenantID, docID core.DocumentID) error {
	_, scope, err := p.guard.Lookup(ctx, id)
	if err != nil {
		return err
	}

	if err := p.docs.SetDocumentState(ctx, id, docID, core.DocumentMarkedDeleted); err != nil {
		return err
	}
	p.logger.Info("document marked deleted", "tenant", id, "document", docID)

	if err := p.pool.Submit(func() {
		if err := p.purgeDocument(context.Background(), scope, id, docID); err != nil {
			p.logger.Error("background document purge failed, sweep will retry",
				"tenant", id, "document", docID, "err", err)
		}
	}); err != nil {
		// The mark already landed; the sweep picks the purge up.
		p.logger.Warn("could not schedule document purge", "tenant", id, "document", docID, "err", err)
	}
	return nil
}

// MarkTenantDeleted marks a tenant deleted and schedules the purge of
// everything it owns. Ingestion and retrieval reject the tenant as soon
// as this returns.
func (p *Purger) MarkTenantDeleted(ctx context.Context, id core.TenantID) error {
	_, scope, err := p.guard.Lookup(ctx, id)
	if err != nil {
		return err
	}

	if err := p.tenants.SetTenantState(ctx, id, core.TenantMarkedDeleted); err != nil {
		return err
	}
	p.logger.Info("tenant marked deleted", "tenant", id)

	if err := p.pool.Submit(func() {
		if err := p.purgeTenant(context.Background(), scope, id); err != nil {
			p.logger.Error("background tenant purge failed, sweep will retry", "tenant", id, "err", err)
		}
	}); err != nil {
		p.logger.Warn("could not schedule tenant purge", "tenant", id, "err", err)
	}
	return nil
}

// purgeDocument deletes a document's derived entries, verifies zero
// remain, transitions the record to purged and drops it from the
// catalog. Safe to run concurrently with itself: every step tolerates
// the work already being done.
func (p *Purger) purgeDocument(ctx context.Context, scope core.Scope, id core.TenantID, docID core.DocumentID) error {
	err := retry(ctx, p.config.MaxRetries, p.config.RetryDelay, func() error {
		if err := p.vectors.DeleteDocument(ctx, scope, docID); err != nil {
			return fmt.Errorf("deleting vectors: %w", err)
		}
		if err := p.keywords.DeleteDocument(ctx, scope, docID); err != nil {
			return fmt.Errorf("deleting keyword entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := p.verifyDocumentGone(ctx, scope, docID); err != nil {
		return err
	}

	if err := p.docs.SetDocumentState(ctx, id, docID, core.DocumentPurged); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil // a concurrent purge already finished
		}
		return err
	}
	if err := p.docs.DeleteDocument(ctx, id, docID); err != nil {
		return err
	}

	p.logger.Info("document purged", "tenant", id, "document", docID)
	return nil
}

// purgeTenant deletes the tenant's entire scope, its document records
// and its API keys, then asserts the purged state. The scope may only
// be considered reusable once that state holds.
func (p *Purger) purgeTenant(ctx context.Context, scope core.Scope, id core.TenantID) error {
	current, err := p.tenants.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if current.State == core.TenantPurged {
		return nil
	}

	if err := p.tenants.SetTenantState(ctx, id, core.TenantPurging); err != nil {
		return err
	}

	err = retry(ctx, p.config.MaxRetries, p.config.RetryDelay, func() error {
		if err := p.vectors.DeleteScope(ctx, scope); err != nil {
			return fmt.Errorf("deleting vector scope: %w", err)
		}
		if err := p.keywords.DeleteScope(ctx, scope); err != nil {
			return fmt.Errorf("deleting keyword partition: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := p.verifyScopeGone(ctx, scope); err != nil {
		return err
	}

	docs, err := p.docs.ListDocuments(ctx, id)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := p.docs.DeleteDocument(ctx, id, doc.Id); err != nil {
			return err
		}
	}

	if err := p.tenants.DeleteAPIKeys(ctx, id); err != nil {
		return err
	}

	if err := p.tenants.SetTenantState(ctx, id, core.TenantPurged); err != nil {
		return err
	}

	p.logger.Info("tenant purged", "tenant", id, "documents", len(docs))
	return nil
}

func (p *Purger) verifyDocumentGone(ctx context.Context, scope core.Scope, docID core.DocumentID) error {
	if n, err := p.vectors.CountDocument(ctx, scope, docID); err != nil {
		return err
	} else if n > 0 {
		return fmt.Errorf("%w: %d vector entries remain for document %s", ErrPurgeIncomplete, n, docID)
	}
	if n, err := p.keywords.CountDocument(ctx, scope, docID); err != nil {
		return err
	} else if n > 0 {
		return fmt.Errorf("%w: %d keyword entries remain for document %s", ErrPurgeIncomplete, n, docID)
	}
	return nil
}

func (p *Purger) verifyScopeGone(ctx context.Context, scope core.Scope) error {
	if n, err := p.vectors.CountScope(ctx, scope); err != nil {
		return err
	} else if n > 0 {
		return fmt.Errorf("%w: %d vector entries remain in scope %s", ErrPurgeIncomplete, n, scope.Collection)
	}
	if n, err := p.keywords.CountScope(ctx, scope); err != nil {
		return err
	} else if n > 0 {
		return fmt.Errorf("%w: %d keyword entries remain in partition %s", ErrPurgeIncomplete, n, scope.Partition)
	}
	return nil
}

// Release releases the worker pool. The purger should not be used after
// calling Release; in-flight purges are abandoned to the sweep.
func (p *Purger) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
