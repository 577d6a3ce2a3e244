package chromem

import (
	"context"
	"testing"

	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
	"github.com/stratumhq/corpus/storage/badger"
)

func newTestStore(t *testing.T) storage.VectorStore {
	t.Helper()
	backend, err := badger.OpenBackend("", true)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	store, err := NewStore("", true, backend)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func testScope(partition string) core.Scope {
	return core.Scope{
		Tenant:     core.TenantID(partition),
		Collection: "kb_" + partition + "_mock",
		Partition:  partition,
	}
}

func entry(chunk core.ChunkID, doc core.DocumentID, ordinal int, text string, vector []float32) storage.VectorEntry {
	return storage.VectorEntry{
		Chunk:    chunk,
		Document: doc,
		Ordinal:  ordinal,
		Section:  "body",
		Text:     text,
		Model:    "mock-embed",
		Vector:   vector,
	}
}

func TestUpsertAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := testScope("t1")
	doc := core.NewDocumentID()

	entries := []storage.VectorEntry{
		entry(1, doc, 0, "first chunk", []float32{1, 0, 0}),
		entry(2, doc, 1, "second chunk", []float32{0, 1, 0}),
		entry(3, doc, 2, "third chunk", []float32{0.9, 0.1, 0}),
	}
	if err := store.Upsert(ctx, scope, entries); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	hits, err := store.Query(ctx, scope, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk != 1 {
		t.Fatalf("Expected chunk 1 first, got %s", hits[0].Chunk)
	}
	if hits[0].Score < hits[1].Score {
		t.Fatalf("Expected descending scores, got %f then %f", hits[0].Score, hits[1].Score)
	}
	if hits[0].Document != doc || hits[0].Text != "first chunk" || hits[0].Ordinal != 0 {
		t.Fatalf("Unexpected hit metadata: %+v", hits[0])
	}
}

func TestQueryEmptyScope(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hits, err := store.Query(ctx, testScope("t1"), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Failed to query empty scope: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Expected no hits, got %d", len(hits))
	}
}

func TestUpsertIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := testScope("t1")
	doc := core.NewDocumentID()

	entries := []storage.VectorEntry{entry(1, doc, 0, "chunk", []float32{1, 0, 0})}
	if err := store.Upsert(ctx, scope, entries); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := store.Upsert(ctx, scope, entries); err != nil {
		t.Fatalf("Failed to re-upsert: %v", err)
	}

	count, err := store.CountScope(ctx, scope)
	if err != nil {
		t.Fatalf("Failed to count scope: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 entry after re-upsert, got %d", count)
	}
	count, err = store.CountDocument(ctx, scope, doc)
	if err != nil {
		t.Fatalf("Failed to count document: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 document entry after re-upsert, got %d", count)
	}
}

func TestScopeIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scopeA := testScope("tenant-a")
	scopeB := testScope("tenant-b")

	if err := store.Upsert(ctx, scopeA, []storage.VectorEntry{
		entry(1, core.NewDocumentID(), 0, "private", []float32{1, 0, 0}),
	}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	hits, err := store.Query(ctx, scopeB, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("Expected no cross-scope hits, got %d", len(hits))
	}
}

func TestDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := testScope("t1")
	docA := core.NewDocumentID()
	docB := core.NewDocumentID()

	if err := store.Upsert(ctx, scope, []storage.VectorEntry{
		entry(1, docA, 0, "a0", []float32{1, 0, 0}),
		entry(2, docA, 1, "a1", []float32{0, 1, 0}),
		entry(3, docB, 0, "b0", []float32{0, 0, 1}),
	}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if err := store.DeleteDocument(ctx, scope, docA); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	count, err := store.CountDocument(ctx, scope, docA)
	if err != nil {
		t.Fatalf("Failed to count document: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 entries after delete, got %d", count)
	}
	count, err = store.CountScope(ctx, scope)
	if err != nil {
		t.Fatalf("Failed to count scope: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected doc B's entry to remain, got %d", count)
	}

	// Deleting an absent document is a no-op.
	if err := store.DeleteDocument(ctx, scope, docA); err != nil {
		t.Fatalf("Expected re-delete to be a no-op, got %v", err)
	}
}

func TestDeleteScope(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := testScope("t1")
	other := testScope("t2")

	if err := store.Upsert(ctx, scope, []storage.VectorEntry{
		entry(1, core.NewDocumentID(), 0, "a", []float32{1, 0, 0}),
	}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := store.Upsert(ctx, other, []storage.VectorEntry{
		entry(2, core.NewDocumentID(), 0, "b", []float32{0, 1, 0}),
	}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if err := store.DeleteScope(ctx, scope); err != nil {
		t.Fatalf("Failed to delete scope: %v", err)
	}

	count, err := store.CountScope(ctx, scope)
	if err != nil {
		t.Fatalf("Failed to count scope: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected empty scope, got %d", count)
	}
	count, err = store.CountScope(ctx, other)
	if err != nil {
		t.Fatalf("Failed to count other scope: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected other scope untouched, got %d", count)
	}

	// Idempotent.
	if err := store.DeleteScope(ctx, scope); err != nil {
		t.Fatalf("Expected re-delete to be a no-op, got %v", err)
	}
}

func TestDeleteChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := testScope("t1")
	doc := core.NewDocumentID()

	if err := store.Upsert(ctx, scope, []storage.VectorEntry{
		entry(1, doc, 0, "a", []float32{1, 0, 0}),
		entry(2, doc, 1, "b", []float32{0, 1, 0}),
	}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if err := store.DeleteChunks(ctx, scope, []core.ChunkID{1, 99}); err != nil {
		t.Fatalf("Failed to delete chunks: %v", err)
	}

	count, err := store.CountDocument(ctx, scope, doc)
	if err != nil {
		t.Fatalf("Failed to count document: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 entry after partial delete, got %d", count)
	}
}
