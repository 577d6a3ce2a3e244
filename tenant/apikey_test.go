package tenant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
	"github.com/stratumhq/corpus/storage/badger"
)

func newTestKeyring(t *testing.T) (*Keyring, storage.TenantRepository, *core.Tenant) {
	t.Helper()

	tenantRepo, docRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { docRepo.Close(); tenantRepo.Close(); backend.Close() })

	added, err := tenantRepo.AddTenant(context.Background(), &core.Tenant{
		Name:           "acme",
		EmbeddingModel: "nomic-embed-text",
		State:          core.TenantActive,
	})
	require.NoError(t, err)

	guard, err := NewGuard(tenantRepo)
	require.NoError(t, err)
	keyring, err := NewKeyring(tenantRepo, guard)
	require.NoError(t, err)
	return keyring, tenantRepo, added
}

func TestIssueAndAuthenticate(t *testing.T) {
	keyring, _, tenant := newTestKeyring(t)
	ctx := context.Background()

	rawKey, err := keyring.Issue(ctx, tenant.Id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rawKey, "ck_"))
	assert.Contains(t, rawKey, ".")

	resolved, err := keyring.Authenticate(ctx, rawKey)
	require.NoError(t, err)
	assert.Equal(t, tenant.Id, resolved)
}

func TestAuthenticateRejectsBadKeys(t *testing.T) {
	keyring, _, tenant := newTestKeyring(t)
	ctx := context.Background()

	rawKey, err := keyring.Issue(ctx, tenant.Id)
	require.NoError(t, err)

	t.Run("malformed key", func(t *testing.T) {
		_, err := keyring.Authenticate(ctx, "not-a-key")
		assert.ErrorIs(t, err, ErrInvalidAPIKey)
	})

	t.Run("unknown key id", func(t *testing.T) {
		_, err := keyring.Authenticate(ctx, "ck_ffffffffffff.somesecret")
		assert.ErrorIs(t, err, ErrInvalidAPIKey)
	})

	t.Run("wrong secret", func(t *testing.T) {
		keyId, _, ok := strings.Cut(rawKey, ".")
		require.True(t, ok)
		_, err := keyring.Authenticate(ctx, keyId+".wrongsecret")
		assert.ErrorIs(t, err, ErrInvalidAPIKey)
	})
}

func TestAuthenticateDeletedTenant(t *testing.T) {
	keyring, tenantRepo, tenant := newTestKeyring(t)
	ctx := context.Background()

	rawKey, err := keyring.Issue(ctx, tenant.Id)
	require.NoError(t, err)

	require.NoError(t, tenantRepo.SetTenantState(ctx, tenant.Id, core.TenantMarkedDeleted))

	_, err = keyring.Authenticate(ctx, rawKey)
	assert.ErrorIs(t, err, ErrTenantDeleted)
}

func TestIssueForDeletedTenant(t *testing.T) {
	keyring, tenantRepo, tenant := newTestKeyring(t)
	ctx := context.Background()

	require.NoError(t, tenantRepo.SetTenantState(ctx, tenant.Id, core.TenantMarkedDeleted))

	_, err := keyring.Issue(ctx, tenant.Id)
	assert.ErrorIs(t, err, ErrTenantDeleted)
}

func TestRevoke(t *testing.T) {
	keyring, _, tenant := newTestKeyring(t)
	ctx := context.Background()

	rawKey, err := keyring.Issue(ctx, tenant.Id)
	require.NoError(t, err)

	require.NoError(t, keyring.Revoke(ctx, tenant.Id))

	_, err = keyring.Authenticate(ctx, rawKey)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}
