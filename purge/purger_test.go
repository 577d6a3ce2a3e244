package purge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumhq/corpus/ai/mock"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/ingest"
	"github.com/stratumhq/corpus/storage"
	"github.com/stratumhq/corpus/storage/badger"
	"github.com/stratumhq/corpus/storage/chromem"
	"github.com/stratumhq/corpus/tenant"
)

type purgeFixture struct {
	purger   *Purger
	guard    *tenant.Guard
	tenants  storage.TenantRepository
	docs     storage.DocumentRepository
	vectors  storage.VectorStore
	keywords storage.KeywordIndex
	tenant   *core.Tenant
	scope    core.Scope
}

func newPurgeFixture(t *testing.T) *purgeFixture {
	t.Helper()

	tenantRepo, docRepo, keywords, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { docRepo.Close(); tenantRepo.Close(); backend.Close() })

	vectors, err := chromem.NewStore("", true, backend)
	require.NoError(t, err)

	guard, err := tenant.NewGuard(tenantRepo)
	require.NoError(t, err)

	added, err := tenantRepo.AddTenant(context.Background(), &core.Tenant{
		Name:           "acme",
		EmbeddingModel: "mock-embed",
		State:          core.TenantActive,
	})
	require.NoError(t, err)

	purger, err := NewPurger(guard, tenantRepo, docRepo, vectors, keywords,
		WithConfig(&Config{MaxRetries: 2, RetryDelay: 10 * time.Millisecond}))
	require.NoError(t, err)
	t.Cleanup(purger.Release)

	_, scope, err := guard.Resolve(context.Background(), added.Id)
	require.NoError(t, err)

	return &purgeFixture{
		purger:   purger,
		guard:    guard,
		tenants:  tenantRepo,
		docs:     docRepo,
		vectors:  vectors,
		keywords: keywords,
		tenant:   added,
		scope:    scope,
	}
}

func (f *purgeFixture) ingestDocument(t *testing.T, name string) *core.Document {
	t.Helper()

	pipeline, err := ingest.NewPipeline(f.guard, f.docs, f.vectors, f.keywords,
		mock.NewMockProvider().Embedder())
	require.NoError(t, err)
	defer pipeline.Release()

	text := strings.Join([]string{
		"# " + name,
		"",
		"Customers may return any purchase within thirty days of delivery for a full refund issued to the original payment method.",
	}, "\n")
	doc, err := pipeline.Ingest(context.Background(), f.tenant.Id, name, text)
	require.NoError(t, err)
	require.Greater(t, doc.ChunkCount, 0)
	return doc
}

func TestMarkDocumentDeletedThenSweep(t *testing.T) {
	f := newPurgeFixture(t)
	ctx := context.Background()
	doc := f.ingestDocument(t, "policy.md")

	require.NoError(t, f.purger.MarkDocumentDeleted(ctx, f.tenant.Id, doc.Id))

	// The sweep re-drives the purge whether or not the background worker
	// already finished; afterwards nothing derived survives.
	_, err := f.purger.Sweep(ctx)
	require.NoError(t, err)

	count, err := f.vectors.CountDocument(ctx, f.scope, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = f.keywords.CountDocument(ctx, f.scope, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = f.docs.GetDocument(ctx, f.tenant.Id, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMarkDocumentDeletedUnknownTenant(t *testing.T) {
	f := newPurgeFixture(t)

	err := f.purger.MarkDocumentDeleted(context.Background(), core.NewTenantID(), core.NewDocumentID())
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestMarkTenantDeletedThenSweep(t *testing.T) {
	f := newPurgeFixture(t)
	ctx := context.Background()
	f.ingestDocument(t, "policy.md")
	f.ingestDocument(t, "shipping.md")

	require.NoError(t, f.tenants.AddAPIKey(ctx, &core.APIKeyRecord{
		KeyId:  "ck_abc123",
		Tenant: f.tenant.Id,
		Hash:   "hash",
	}))

	require.NoError(t, f.purger.MarkTenantDeleted(ctx, f.tenant.Id))

	// The mark immediately fences the tenant off.
	_, _, err := f.guard.Resolve(ctx, f.tenant.Id)
	assert.ErrorIs(t, err, tenant.ErrTenantDeleted)

	_, err = f.purger.Sweep(ctx)
	require.NoError(t, err)

	stored, err := f.tenants.GetTenant(ctx, f.tenant.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TenantPurged, stored.State)

	count, err := f.vectors.CountScope(ctx, f.scope)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = f.keywords.CountScope(ctx, f.scope)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	docs, err := f.docs.ListDocuments(ctx, f.tenant.Id)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = f.tenants.GetAPIKey(ctx, "ck_abc123")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSweepRepairsInterruptedPurge(t *testing.T) {
	f := newPurgeFixture(t)
	ctx := context.Background()
	doc := f.ingestDocument(t, "policy.md")

	// Simulate a crash between the mark and the purge: state changed,
	// derived entries untouched, no background worker ever scheduled.
	require.NoError(t, f.docs.SetDocumentState(ctx, f.tenant.Id, doc.Id, core.DocumentMarkedDeleted))

	report, err := f.purger.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsPurged)
	assert.Equal(t, 0, report.Failures)

	count, err := f.vectors.CountDocument(ctx, f.scope, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = f.keywords.CountDocument(ctx, f.scope, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSweepCleanSystem(t *testing.T) {
	f := newPurgeFixture(t)
	f.ingestDocument(t, "policy.md")

	report, err := f.purger.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TenantsPurged)
	assert.Equal(t, 0, report.DocumentsPurged)
	assert.Equal(t, 0, report.Failures)

	// Active data is untouched by the sweep.
	count, err := f.keywords.CountScope(context.Background(), f.scope)
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestSweepIdempotent(t *testing.T) {
	f := newPurgeFixture(t)
	ctx := context.Background()

	require.NoError(t, f.purger.MarkTenantDeleted(ctx, f.tenant.Id))

	_, err := f.purger.Sweep(ctx)
	require.NoError(t, err)

	// A second pass finds nothing left to do and changes nothing.
	report, err := f.purger.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TenantsPurged)
	assert.Equal(t, 0, report.Failures)

	stored, err := f.tenants.GetTenant(ctx, f.tenant.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TenantPurged, stored.State)
}

func TestNewPurgerValidation(t *testing.T) {
	f := newPurgeFixture(t)

	_, err := NewPurger(nil, f.tenants, f.docs, f.vectors, f.keywords)
	assert.ErrorIs(t, err, ErrGuardRequired)

	_, err = NewPurger(f.guard, f.tenants, f.docs, f.vectors, f.keywords,
		WithConfig(&Config{MaxRetries: 0}))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
