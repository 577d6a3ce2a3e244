package badger

import (
	"context"
	"testing"

	"github.com/stratumhq/corpus/core"
)

func testScope(partition string) core.Scope {
	return core.Scope{
		Tenant:     core.TenantID(partition),
		Collection: "kb_" + partition,
		Partition:  partition,
	}
}

func TestKeywordIndexAndSearch(t *testing.T) {
	tenantRepo, docRepo, keywords, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	scope := testScope("t1")
	doc := core.NewDocumentID()

	texts := map[core.ChunkID]string{
		1: "refund policy allows returns within thirty days",
		2: "shipping times vary between regions",
		3: "the refund desk handles refund requests every weekday",
	}
	for chunk, text := range texts {
		if err := keywords.Index(ctx, scope, core.Chunk{Id: chunk, Document: doc, Text: text}); err != nil {
			t.Fatalf("Failed to index chunk: %v", err)
		}
	}

	hits, err := keywords.Search(ctx, scope, "refund", 10)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	// Chunk 3 mentions refund twice, so it outranks chunk 1.
	if hits[0].Chunk != 3 {
		t.Fatalf("Expected chunk 3 first, got %s", hits[0].Chunk)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("Expected descending scores, got %f then %f", hits[0].Score, hits[1].Score)
	}
	// Hits come back hydrated with the stored attribution.
	if hits[0].Document != doc {
		t.Fatalf("Expected document %s on hit, got %s", doc, hits[0].Document)
	}
	if hits[0].Text != texts[3] {
		t.Fatalf("Expected hydrated chunk text, got %q", hits[0].Text)
	}

	// Stop words and empty queries return nothing.
	hits, err = keywords.Search(ctx, scope, "the a an", 10)
	if err != nil {
		t.Fatalf("Failed to search stop words: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Expected no hits for stop-word query, got %d", len(hits))
	}

	hits, err = keywords.Search(ctx, scope, "nonexistentterm", 10)
	if err != nil {
		t.Fatalf("Failed to search unknown term: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Expected no hits for unknown term, got %d", len(hits))
	}
}

func TestKeywordReindexReplaces(t *testing.T) {
	tenantRepo, docRepo, keywords, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	scope := testScope("t1")
	doc := core.NewDocumentID()

	if err := keywords.Index(ctx, scope, core.Chunk{Id: 1, Document: doc, Text: "alpha beta gamma"}); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}
	if err := keywords.Index(ctx, scope, core.Chunk{Id: 1, Document: doc, Text: "delta epsilon"}); err != nil {
		t.Fatalf("Failed to re-index: %v", err)
	}

	// Old terms must be gone.
	hits, err := keywords.Search(ctx, scope, "alpha", 10)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Expected stale postings removed, got %d hits", len(hits))
	}

	hits, err = keywords.Search(ctx, scope, "delta", 10)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit for new term, got %d", len(hits))
	}

	// Re-indexing must not inflate corpus stats.
	count, err := keywords.CountScope(ctx, scope)
	if err != nil {
		t.Fatalf("Failed to count scope: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 chunk in scope, got %d", count)
	}
}

func TestKeywordPartitionIsolation(t *testing.T) {
	tenantRepo, docRepo, keywords, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	scopeA := testScope("tenant-a")
	scopeB := testScope("tenant-b")

	if err := keywords.Index(ctx, scopeA, core.Chunk{Id: 1, Document: core.NewDocumentID(), Text: "secret launch plans"}); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}

	hits, err := keywords.Search(ctx, scopeB, "secret", 10)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Expected no cross-partition hits, got %d", len(hits))
	}
}

func TestKeywordDeleteDocument(t *testing.T) {
	tenantRepo, docRepo, keywords, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	scope := testScope("t1")
	docA := core.NewDocumentID()
	docB := core.NewDocumentID()

	if err := keywords.Index(ctx, scope, core.Chunk{Id: 1, Document: docA, Text: "alpha beta"}); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}
	if err := keywords.Index(ctx, scope, core.Chunk{Id: 2, Document: docA, Text: "alpha gamma"}); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}
	if err := keywords.Index(ctx, scope, core.Chunk{Id: 3, Document: docB, Text: "alpha delta"}); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}

	count, err := keywords.CountDocument(ctx, scope, docA)
	if err != nil {
		t.Fatalf("Failed to count document: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 chunks for doc A, got %d", count)
	}

	if err := keywords.DeleteDocument(ctx, scope, docA); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	count, err = keywords.CountDocument(ctx, scope, docA)
	if err != nil {
		t.Fatalf("Failed to count document: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 chunks after delete, got %d", count)
	}

	// Doc B untouched.
	hits, err := keywords.Search(ctx, scope, "alpha", 10)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk != 3 {
		t.Fatalf("Expected only doc B's chunk to remain, got %v", hits)
	}

	// Deleting an absent document is a no-op.
	if err := keywords.DeleteDocument(ctx, scope, docA); err != nil {
		t.Fatalf("Expected re-delete to be a no-op, got %v", err)
	}
}

func TestKeywordDeleteScope(t *testing.T) {
	tenantRepo, docRepo, keywords, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	scope := testScope("t1")
	other := testScope("t2")

	if err := keywords.Index(ctx, scope, core.Chunk{Id: 1, Document: core.NewDocumentID(), Text: "alpha beta"}); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}
	if err := keywords.Index(ctx, other, core.Chunk{Id: 2, Document: core.NewDocumentID(), Text: "alpha beta"}); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}

	if err := keywords.DeleteScope(ctx, scope); err != nil {
		t.Fatalf("Failed to delete scope: %v", err)
	}

	count, err := keywords.CountScope(ctx, scope)
	if err != nil {
		t.Fatalf("Failed to count scope: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected empty scope after delete, got %d", count)
	}

	count, err = keywords.CountScope(ctx, other)
	if err != nil {
		t.Fatalf("Failed to count other scope: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected other scope untouched, got %d", count)
	}
}

func TestKeywordIndexTermsWithColons(t *testing.T) {
	tenantRepo, docRepo, keywords, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	scope := testScope("t1")
	doc := core.NewDocumentID()

	// URL terms keep their colons through the analyzer; they must not
	// corrupt the key space of terms that are their colon-prefix.
	if err := keywords.Index(ctx, scope, core.Chunk{Id: 1, Document: doc, Text: "see http://example.com before ordering"}); err != nil {
		t.Fatalf("Failed to index URL-bearing text: %v", err)
	}
	if err := keywords.Index(ctx, scope, core.Chunk{Id: 2, Document: doc, Text: "http handlers serve every request"}); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}

	// "http" only matches the chunk where it is a standalone term.
	hits, err := keywords.Search(ctx, scope, "http", 10)
	if err != nil {
		t.Fatalf("Failed to search term that prefixes a URL: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk != 2 {
		t.Fatalf("Expected only the standalone http chunk, got %v", hits)
	}

	// The full URL term is searchable as itself.
	hits, err = keywords.Search(ctx, scope, "http://example.com", 10)
	if err != nil {
		t.Fatalf("Failed to search URL term: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk != 1 {
		t.Fatalf("Expected the URL chunk, got %v", hits)
	}

	// Deletion reverses the escaped postings too.
	if err := keywords.DeleteChunks(ctx, scope, []core.ChunkID{1}); err != nil {
		t.Fatalf("Failed to delete chunk: %v", err)
	}
	hits, err = keywords.Search(ctx, scope, "http://example.com", 10)
	if err != nil {
		t.Fatalf("Failed to search after delete: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Expected URL postings removed, got %v", hits)
	}
}

func TestKeywordSearchLimit(t *testing.T) {
	tenantRepo, docRepo, keywords, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	scope := testScope("t1")
	doc := core.NewDocumentID()

	for i := core.ChunkID(1); i <= 5; i++ {
		if err := keywords.Index(ctx, scope, core.Chunk{Id: i, Document: doc, Text: "alpha filler words here"}); err != nil {
			t.Fatalf("Failed to index: %v", err)
		}
	}

	hits, err := keywords.Search(ctx, scope, "alpha", 3)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("Expected limit of 3 hits, got %d", len(hits))
	}
	// Equal scores break ties by chunk ID ascending.
	if hits[0].Chunk != 1 || hits[1].Chunk != 2 || hits[2].Chunk != 3 {
		t.Fatalf("Expected deterministic tie-break order, got %v", hits)
	}
}
