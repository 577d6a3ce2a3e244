package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// TenantID identifies an isolated owner of a knowledge base.
// Every stored chunk, vector and retrieval operation is scoped to one TenantID.
type TenantID string

// NewTenantID generates a random tenant identifier.
func NewTenantID() TenantID {
	return TenantID(uuid.NewString())
}

// DocumentID identifies an uploaded source artifact within a tenant.
type DocumentID string

// NewDocumentID generates a random document identifier.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.NewString())
}

// ChunkID is a deterministic identifier for a chunk, derived from its
// owning document, ordinal and text via BLAKE2b hashing. Re-chunking an
// unchanged document reproduces the same IDs, which makes upserts idempotent.
type ChunkID uint64

// String renders the chunk ID as fixed-width hex, suitable as an
// external store key.
func (id ChunkID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ChunkIDFor computes the deterministic ID for a chunk.
func ChunkIDFor(doc DocumentID, ordinal int, text string) ChunkID {
	return ChunkID(hash64(fmt.Sprintf("%s:%d:%s", doc, ordinal, text)))
}

// ContentHash computes a 64-bit digest of normalized document text.
// Used to detect unchanged documents on re-ingestion.
func ContentHash(text string) uint64 {
	return hash64(text)
}

func hash64(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// TenantState tracks a tenant's deletion lifecycle.
// Transitions only move forward: active -> marked-deleted -> purging -> purged.
type TenantState int

const (
	// TenantActive is the normal operating state.
	TenantActive TenantState = iota + 1
	// TenantMarkedDeleted means the tenant is soft-deleted: retrieval and
	// ingestion are rejected, stored data awaits purging.
	TenantMarkedDeleted
	// TenantPurging means an asynchronous purge of the tenant's vectors and
	// keyword entries is in progress.
	TenantPurging
	// TenantPurged means the purge has been confirmed complete; the scope
	// may be reused.
	TenantPurged
)

// String returns a human-readable state name.
func (s TenantState) String() string {
	switch s {
	case TenantActive:
		return "active"
	case TenantMarkedDeleted:
		return "marked-deleted"
	case TenantPurging:
		return "purging"
	case TenantPurged:
		return "purged"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Tenant is an isolated logical owner of a knowledge base.
// Identity is immutable; configuration fields may be updated.
type Tenant struct {
	Id             TenantID
	Name           string
	Description    string
	SystemPrompt   string
	ChatModel      string
	EmbeddingModel string
	State          TenantState
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DocumentState tracks a document's deletion lifecycle.
type DocumentState int

const (
	// DocumentActive means the document's chunks participate in retrieval.
	DocumentActive DocumentState = iota + 1
	// DocumentMarkedDeleted means the document is excluded from retrieval
	// and its vectors and keyword entries await purging.
	DocumentMarkedDeleted
	// DocumentPurged means all derived entries are confirmed gone.
	DocumentPurged
)

// String returns a human-readable state name.
func (s DocumentState) String() string {
	switch s {
	case DocumentActive:
		return "active"
	case DocumentMarkedDeleted:
		return "marked-deleted"
	case DocumentPurged:
		return "purged"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Document is the catalog record for an uploaded source artifact.
// The raw file lives with the file-management collaborator; this record
// tracks what was derived from it.
type Document struct {
	Id          DocumentID
	Tenant      TenantID
	Name        string
	ContentHash uint64
	ChunkCount  int
	State       DocumentState
	IngestedAt  time.Time
	UpdatedAt   time.Time
}

// Chunk is a bounded, overlap-linked span of normalized document text.
// Chunks are immutable once created; re-ingestion supersedes them.
type Chunk struct {
	Id         ChunkID
	Document   DocumentID
	Ordinal    int
	Text       string
	TokenCount int
	Section    string  // heading the chunk falls under, or "" for body text
	Prev       ChunkID // 0 when first chunk of the document
	Next       ChunkID // 0 when last chunk of the document
}

// Scope is the exclusive storage namespace resolved for one tenant.
// Adapters take it explicitly on every call; it is never derived from
// request payload content.
type Scope struct {
	Tenant     TenantID
	Collection string // vector store collection name
	Partition  string // keyword index partition key
}

// Candidate is an ephemeral retrieval result that lives only within one
// query. Scores accumulate as the candidate moves through the pipeline.
type Candidate struct {
	Chunk      ChunkID
	Document   DocumentID
	Ordinal    int
	Section    string
	Text       string
	TokenCount int
	IngestedAt time.Time

	VectorScore  float64
	KeywordScore float64
	FusedScore   float64
	RerankScore  float64
	Reranked     bool
}

// ContextEntry is one attributed unit of assembled context.
type ContextEntry struct {
	Document   DocumentID
	Ordinal    int
	Section    string
	Score      float64
	Text       string
	TokenCount int
}

// ContextBlock is the final size-bounded, attributed payload handed to
// the generation collaborator. It is ephemeral and never persisted.
type ContextBlock struct {
	Entries     []ContextEntry
	TotalTokens int
}

// APIKeyRecord stores the hashed form of an issued API key.
// The raw secret is shown once at issue time and never stored.
type APIKeyRecord struct {
	KeyId     string
	Tenant    TenantID
	Hash      string
	CreatedAt time.Time
}
