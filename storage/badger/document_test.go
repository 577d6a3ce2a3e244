package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

func TestDocumentBasics(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	tenant := core.NewTenantID()

	doc := &core.Document{
		Tenant:      tenant,
		Name:        "handbook.md",
		ContentHash: 0xdeadbeef,
		ChunkCount:  12,
		State:       core.DocumentActive,
	}

	stored, err := docRepo.PutDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to put document: %v", err)
	}
	if stored.Id == "" {
		t.Fatal("Expected non-empty document ID")
	}
	if stored.IngestedAt.IsZero() {
		t.Fatal("Expected ingestion timestamp to be set")
	}

	got, err := docRepo.GetDocument(ctx, tenant, stored.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if got.Name != "handbook.md" || got.ChunkCount != 12 {
		t.Fatalf("Unexpected document: %+v", got)
	}

	byName, err := docRepo.GetDocumentByName(ctx, tenant, "handbook.md")
	if err != nil {
		t.Fatalf("Failed to get document by name: %v", err)
	}
	if byName.Id != stored.Id {
		t.Fatalf("Expected ID %s, got %s", stored.Id, byName.Id)
	}
}

func TestDocumentTenantScoping(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	tenantA := core.NewTenantID()
	tenantB := core.NewTenantID()

	stored, err := docRepo.PutDocument(ctx, &core.Document{
		Tenant: tenantA,
		Name:   "handbook.md",
		State:  core.DocumentActive,
	})
	if err != nil {
		t.Fatalf("Failed to put document: %v", err)
	}

	// Same ID under another tenant must not resolve.
	if _, err := docRepo.GetDocument(ctx, tenantB, stored.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound across tenants, got %v", err)
	}
	if _, err := docRepo.GetDocumentByName(ctx, tenantB, "handbook.md"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound across tenants, got %v", err)
	}

	docsA, err := docRepo.ListDocuments(ctx, tenantA)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docsA) != 1 {
		t.Fatalf("Expected 1 document for tenant A, got %d", len(docsA))
	}
	docsB, err := docRepo.ListDocuments(ctx, tenantB)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docsB) != 0 {
		t.Fatalf("Expected 0 documents for tenant B, got %d", len(docsB))
	}
}

func TestDocumentReplaceAndRename(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	tenant := core.NewTenantID()

	stored, err := docRepo.PutDocument(ctx, &core.Document{
		Tenant: tenant,
		Name:   "old.md",
		State:  core.DocumentActive,
	})
	if err != nil {
		t.Fatalf("Failed to put document: %v", err)
	}

	renamed := *stored
	renamed.Name = "new.md"
	if _, err := docRepo.PutDocument(ctx, &renamed); err != nil {
		t.Fatalf("Failed to replace document: %v", err)
	}

	if _, err := docRepo.GetDocumentByName(ctx, tenant, "old.md"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected old name removed, got %v", err)
	}
	byName, err := docRepo.GetDocumentByName(ctx, tenant, "new.md")
	if err != nil {
		t.Fatalf("Failed to get renamed document: %v", err)
	}
	if byName.Id != stored.Id {
		t.Fatalf("Expected ID %s, got %s", stored.Id, byName.Id)
	}
}

func TestDocumentStateTransitions(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	tenant := core.NewTenantID()

	stored, err := docRepo.PutDocument(ctx, &core.Document{
		Tenant: tenant,
		Name:   "handbook.md",
		State:  core.DocumentActive,
	})
	if err != nil {
		t.Fatalf("Failed to put document: %v", err)
	}

	if err := docRepo.SetDocumentState(ctx, tenant, stored.Id, core.DocumentMarkedDeleted); err != nil {
		t.Fatalf("Failed to mark document deleted: %v", err)
	}

	// Idempotent re-assertion
	if err := docRepo.SetDocumentState(ctx, tenant, stored.Id, core.DocumentMarkedDeleted); err != nil {
		t.Fatalf("Expected same-state re-assert to succeed: %v", err)
	}

	// No resurrection
	err = docRepo.SetDocumentState(ctx, tenant, stored.Id, core.DocumentActive)
	if !errors.Is(err, core.ErrInvalidStateTransition) {
		t.Fatalf("Expected ErrInvalidStateTransition, got %v", err)
	}

	if err := docRepo.SetDocumentState(ctx, tenant, stored.Id, core.DocumentPurged); err != nil {
		t.Fatalf("Failed to transition to purged: %v", err)
	}
}

func TestDeleteDocumentIdempotent(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()
	tenant := core.NewTenantID()

	stored, err := docRepo.PutDocument(ctx, &core.Document{
		Tenant: tenant,
		Name:   "handbook.md",
		State:  core.DocumentActive,
	})
	if err != nil {
		t.Fatalf("Failed to put document: %v", err)
	}

	if err := docRepo.DeleteDocument(ctx, tenant, stored.Id); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}
	// Re-deleting is a no-op
	if err := docRepo.DeleteDocument(ctx, tenant, stored.Id); err != nil {
		t.Fatalf("Expected re-delete to be a no-op, got %v", err)
	}

	if _, err := docRepo.GetDocument(ctx, tenant, stored.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
}
