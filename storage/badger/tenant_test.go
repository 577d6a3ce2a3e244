package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

func TestTenantBasics(t *testing.T) {
	tenantRepo, docRepo, keywords, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	_ = keywords
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()

	tenant := &core.Tenant{
		Name:           "acme",
		Description:    "Acme Corp knowledge base",
		EmbeddingModel: "nomic-embed-text",
		State:          core.TenantActive,
	}

	added, err := tenantRepo.AddTenant(ctx, tenant)
	if err != nil {
		t.Fatalf("Failed to add tenant: %v", err)
	}
	if added.Id == "" {
		t.Fatal("Expected non-empty tenant ID")
	}
	if added.CreatedAt.IsZero() || added.UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be set")
	}

	retrieved, err := tenantRepo.GetTenant(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get tenant: %v", err)
	}
	if retrieved.Name != "acme" {
		t.Fatalf("Expected 'acme', got '%s'", retrieved.Name)
	}

	byName, err := tenantRepo.GetTenantByName(ctx, "acme")
	if err != nil {
		t.Fatalf("Failed to get tenant by name: %v", err)
	}
	if byName.Id != added.Id {
		t.Fatalf("Expected ID %s, got %s", added.Id, byName.Id)
	}
}

func TestTenantDuplicateName(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()

	first := &core.Tenant{Name: "acme", EmbeddingModel: "nomic-embed-text", State: core.TenantActive}
	if _, err := tenantRepo.AddTenant(ctx, first); err != nil {
		t.Fatalf("Failed to add tenant: %v", err)
	}

	second := &core.Tenant{Name: "acme", EmbeddingModel: "nomic-embed-text", State: core.TenantActive}
	_, err = tenantRepo.AddTenant(ctx, second)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTenantNotFound(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = tenantRepo.GetTenant(ctx, core.NewTenantID())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	_, err = tenantRepo.GetTenantByName(ctx, "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTenantPreservesStateAndRenames(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := tenantRepo.AddTenant(ctx, &core.Tenant{
		Name:           "acme",
		EmbeddingModel: "nomic-embed-text",
		State:          core.TenantActive,
	})
	if err != nil {
		t.Fatalf("Failed to add tenant: %v", err)
	}

	changed := *added
	changed.Name = "acme-renamed"
	changed.State = core.TenantPurged // must be ignored by update

	updated, err := tenantRepo.UpdateTenant(ctx, &changed)
	if err != nil {
		t.Fatalf("Failed to update tenant: %v", err)
	}
	if updated.State != core.TenantActive {
		t.Fatalf("Expected state preserved as active, got %s", updated.State)
	}

	// Old name index must be gone, new one must resolve.
	if _, err := tenantRepo.GetTenantByName(ctx, "acme"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected old name to be removed, got %v", err)
	}
	byName, err := tenantRepo.GetTenantByName(ctx, "acme-renamed")
	if err != nil {
		t.Fatalf("Failed to get renamed tenant: %v", err)
	}
	if byName.Id != added.Id {
		t.Fatalf("Expected ID %s, got %s", added.Id, byName.Id)
	}
}

func TestTenantStateTransitions(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := tenantRepo.AddTenant(ctx, &core.Tenant{
		Name:           "acme",
		EmbeddingModel: "nomic-embed-text",
		State:          core.TenantActive,
	})
	if err != nil {
		t.Fatalf("Failed to add tenant: %v", err)
	}

	// Forward transition succeeds
	if err := tenantRepo.SetTenantState(ctx, added.Id, core.TenantMarkedDeleted); err != nil {
		t.Fatalf("Failed to mark tenant deleted: %v", err)
	}

	// Re-asserting the same state is a no-op
	if err := tenantRepo.SetTenantState(ctx, added.Id, core.TenantMarkedDeleted); err != nil {
		t.Fatalf("Expected same-state re-assert to succeed: %v", err)
	}

	// Backward transition is rejected
	err = tenantRepo.SetTenantState(ctx, added.Id, core.TenantActive)
	if !errors.Is(err, core.ErrInvalidStateTransition) {
		t.Fatalf("Expected ErrInvalidStateTransition, got %v", err)
	}

	if err := tenantRepo.SetTenantState(ctx, added.Id, core.TenantPurging); err != nil {
		t.Fatalf("Failed to transition to purging: %v", err)
	}
	if err := tenantRepo.SetTenantState(ctx, added.Id, core.TenantPurged); err != nil {
		t.Fatalf("Failed to transition to purged: %v", err)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	tenantRepo, docRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { docRepo.Close(); tenantRepo.Close(); backend.Close() }()

	ctx := context.Background()

	tenant, err := tenantRepo.AddTenant(ctx, &core.Tenant{
		Name:           "acme",
		EmbeddingModel: "nomic-embed-text",
		State:          core.TenantActive,
	})
	if err != nil {
		t.Fatalf("Failed to add tenant: %v", err)
	}

	record := &core.APIKeyRecord{
		KeyId:  "ck_test123",
		Tenant: tenant.Id,
		Hash:   "$2a$10$abcdefghijklmnopqrstuv",
	}
	if err := tenantRepo.AddAPIKey(ctx, record); err != nil {
		t.Fatalf("Failed to add api key: %v", err)
	}

	got, err := tenantRepo.GetAPIKey(ctx, "ck_test123")
	if err != nil {
		t.Fatalf("Failed to get api key: %v", err)
	}
	if got.Tenant != tenant.Id {
		t.Fatalf("Expected tenant %s, got %s", tenant.Id, got.Tenant)
	}

	if err := tenantRepo.DeleteAPIKeys(ctx, tenant.Id); err != nil {
		t.Fatalf("Failed to delete api keys: %v", err)
	}
	if _, err := tenantRepo.GetAPIKey(ctx, "ck_test123"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
}
