package storage

import (
	"context"

	"github.com/stratumhq/corpus/core"
)

// TenantRepository is the registry of tenants and their API keys.
// Implementations must be thread-safe and support concurrent access.
type TenantRepository interface {
	// AddTenant adds a tenant to the registry.
	// Generates an ID when Id is empty; sets CreatedAt if not already set.
	// Returns ErrDuplicateKey if a tenant with the same name exists.
	AddTenant(ctx context.Context, tenant *core.Tenant) (*core.Tenant, error)

	// UpdateTenant updates a tenant's mutable configuration.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the tenant doesn't exist.
	UpdateTenant(ctx context.Context, tenant *core.Tenant) (*core.Tenant, error)

	// GetTenant retrieves a tenant by ID.
	// Returns ErrNotFound if the tenant doesn't exist.
	GetTenant(ctx context.Context, id core.TenantID) (*core.Tenant, error)

	// GetTenantByName retrieves a tenant by its unique name.
	// Returns ErrNotFound if no tenant has that name.
	GetTenantByName(ctx context.Context, name string) (*core.Tenant, error)

	// ListTenants retrieves all tenants, in any state.
	ListTenants(ctx context.Context) ([]*core.Tenant, error)

	// SetTenantState transitions a tenant's lifecycle state.
	// Returns core.ErrInvalidStateTransition for backwards moves and
	// ErrNotFound for unknown tenants. Re-asserting the current state is
	// a no-op so retries stay idempotent.
	SetTenantState(ctx context.Context, id core.TenantID, state core.TenantState) error

	// AddAPIKey stores a hashed API key record for a tenant.
	AddAPIKey(ctx context.Context, record *core.APIKeyRecord) error

	// GetAPIKey retrieves an API key record by its public key ID.
	// Returns ErrNotFound if no such key exists.
	GetAPIKey(ctx context.Context, keyId string) (*core.APIKeyRecord, error)

	// DeleteAPIKeys removes all API key records for a tenant.
	// Deleting keys for a tenant with none is a no-op.
	DeleteAPIKeys(ctx context.Context, tenant core.TenantID) error

	// Close closes the repository and releases resources.
	Close() error
}

// DocumentRepository is the per-tenant catalog of ingested documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// PutDocument inserts or replaces a document catalog record.
	PutDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID within a tenant.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, tenant core.TenantID, id core.DocumentID) (*core.Document, error)

	// GetDocumentByName retrieves a tenant's document by name.
	// Returns ErrNotFound if no document has that name.
	GetDocumentByName(ctx context.Context, tenant core.TenantID, name string) (*core.Document, error)

	// ListDocuments retrieves all documents for a tenant, in any state.
	ListDocuments(ctx context.Context, tenant core.TenantID) ([]*core.Document, error)

	// SetDocumentState transitions a document's lifecycle state.
	// Returns core.ErrInvalidStateTransition for backwards moves.
	SetDocumentState(ctx context.Context, tenant core.TenantID, id core.DocumentID, state core.DocumentState) error

	// DeleteDocument removes a document catalog record outright.
	// Used after the purge confirms zero remaining derived entries.
	// Deleting an absent document is a no-op.
	DeleteDocument(ctx context.Context, tenant core.TenantID, id core.DocumentID) error

	// Close closes the repository and releases resources.
	Close() error
}

// VectorEntry is one chunk's embedding plus the metadata required for
// attribution, stored in the vector store.
type VectorEntry struct {
	Chunk      core.ChunkID
	Document   core.DocumentID
	Ordinal    int
	Section    string
	Text       string
	TokenCount int
	Model      string
	Vector     []float32
}

// VectorHit is a single vector similarity result.
type VectorHit struct {
	Chunk      core.ChunkID
	Document   core.DocumentID
	Ordinal    int
	Section    string
	Text       string
	TokenCount int
	Score      float64
}

// VectorStore provides per-scope vector similarity search and upsert.
// Every call is bound to one scope; implementations must guarantee that
// entries written under one scope are never visible from another.
type VectorStore interface {
	// Upsert inserts or overwrites entries by chunk ID within the scope.
	// Re-upserting an identical entry is a no-op, which makes ingestion
	// retries safe.
	Upsert(ctx context.Context, scope core.Scope, entries []VectorEntry) error

	// Query returns the top-k entries most similar to the vector,
	// ordered by descending similarity.
	Query(ctx context.Context, scope core.Scope, vector []float32, k int) ([]VectorHit, error)

	// DeleteChunks removes entries by chunk ID. Absent IDs are no-ops.
	DeleteChunks(ctx context.Context, scope core.Scope, chunks []core.ChunkID) error

	// DeleteDocument removes every entry derived from the document.
	DeleteDocument(ctx context.Context, scope core.Scope, doc core.DocumentID) error

	// DeleteScope removes the scope's collection entirely.
	DeleteScope(ctx context.Context, scope core.Scope) error

	// CountDocument reports how many entries remain for the document.
	// The reconciliation sweep uses this to confirm zero orphan vectors.
	CountDocument(ctx context.Context, scope core.Scope, doc core.DocumentID) (int, error)

	// CountScope reports how many entries remain in the scope.
	CountScope(ctx context.Context, scope core.Scope) (int, error)
}

// KeywordHit is a single lexical search result, hydrated with the stored
// attribution so keyword-only candidates carry everything reranking and
// context assembly need.
type KeywordHit struct {
	Chunk      core.ChunkID
	Document   core.DocumentID
	Ordinal    int
	Section    string
	Text       string
	TokenCount int
	Score      float64
}

// KeywordIndex provides per-scope lexical (BM25) search.
// The same isolation guarantee as VectorStore applies.
type KeywordIndex interface {
	// Index adds or replaces a chunk in the scope's partition.
	// Re-indexing the same chunk ID replaces its previous postings.
	Index(ctx context.Context, scope core.Scope, chunk core.Chunk) error

	// Search returns the top-k chunks ranked by BM25 score, descending.
	Search(ctx context.Context, scope core.Scope, query string, k int) ([]KeywordHit, error)

	// DeleteChunks removes chunks from the index. Absent IDs are no-ops.
	DeleteChunks(ctx context.Context, scope core.Scope, chunks []core.ChunkID) error

	// DeleteDocument removes every chunk indexed for the document.
	DeleteDocument(ctx context.Context, scope core.Scope, doc core.DocumentID) error

	// DeleteScope removes the scope's partition entirely.
	DeleteScope(ctx context.Context, scope core.Scope) error

	// CountDocument reports how many chunks remain indexed for the document.
	CountDocument(ctx context.Context, scope core.Scope, doc core.DocumentID) (int, error)

	// CountScope reports how many chunks remain indexed in the scope.
	CountScope(ctx context.Context, scope core.Scope) (int, error)
}
