package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

// TenantRepository implements storage.TenantRepository on BadgerDB.
type TenantRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.TenantRepository = (*TenantRepository)(nil)

// NewTenantRepository creates a tenant repository on the given backend.
//
// Returns storage.TenantRepository interface to enforce abstraction.
func NewTenantRepository(backend *Backend) (storage.TenantRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &TenantRepository{
		backend: backend,
		logger:  slog.Default().With("component", "tenant-repository"),
	}, nil
}

// AddTenant adds a tenant to the registry.
func (r *TenantRepository) AddTenant(ctx context.Context, tenant *core.Tenant) (*core.Tenant, error) {
	if err := core.ValidateTenant(tenant); err != nil {
		return nil, err
	}

	added := *tenant
	if added.Id == "" {
		added.Id = core.NewTenantID()
	}
	now := time.Now().UTC()
	if added.CreatedAt.IsZero() {
		added.CreatedAt = now
	}
	added.UpdatedAt = now

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Reject duplicate names
		_, err := tx.Get(makeTenantNameKey(added.Name))
		if err == nil {
			return fmt.Errorf("%w: tenant name %q", storage.ErrDuplicateKey, added.Name)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := tx.Set(makeTenantKey(added.Id), storage.MarshalTenant(&added)); err != nil {
			return err
		}
		return tx.Set(makeTenantNameKey(added.Name), []byte(added.Id))
	}, true)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("tenant added", "tenant", added.Id, "name", added.Name)
	return &added, nil
}

// UpdateTenant updates a tenant's mutable configuration. Identity, state
// and creation time are preserved from the stored record.
func (r *TenantRepository) UpdateTenant(ctx context.Context, tenant *core.Tenant) (*core.Tenant, error) {
	if tenant == nil || tenant.Id == "" {
		return nil, fmt.Errorf("%w: missing tenant id", core.ErrInvalidTenant)
	}

	var updated core.Tenant
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := getTenant(tx, tenant.Id)
		if err != nil {
			return err
		}

		updated = *tenant
		updated.State = existing.State
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		if err := core.ValidateTenant(&updated); err != nil {
			return err
		}

		if updated.Name != existing.Name {
			if _, err := tx.Get(makeTenantNameKey(updated.Name)); err == nil {
				return fmt.Errorf("%w: tenant name %q", storage.ErrDuplicateKey, updated.Name)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := tx.Delete(makeTenantNameKey(existing.Name)); err != nil {
				return err
			}
			if err := tx.Set(makeTenantNameKey(updated.Name), []byte(updated.Id)); err != nil {
				return err
			}
		}

		return tx.Set(makeTenantKey(updated.Id), storage.MarshalTenant(&updated))
	}, true)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetTenant retrieves a tenant by ID.
func (r *TenantRepository) GetTenant(ctx context.Context, id core.TenantID) (*core.Tenant, error) {
	var tenant *core.Tenant
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		tenant, err = getTenant(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// GetTenantByName retrieves a tenant by its unique name.
func (r *TenantRepository) GetTenantByName(ctx context.Context, name string) (*core.Tenant, error) {
	var tenant *core.Tenant
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTenantNameKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: tenant name %q", storage.ErrNotFound, name)
			}
			return err
		}
		var id core.TenantID
		if err := item.Value(func(val []byte) error {
			id = core.TenantID(val)
			return nil
		}); err != nil {
			return err
		}
		tenant, err = getTenant(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// ListTenants retrieves all tenants, in any state.
func (r *TenantRepository) ListTenants(ctx context.Context) ([]*core.Tenant, error) {
	var tenants []*core.Tenant
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(tenantPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				tenant, err := storage.UnmarshalTenant(val)
				if err != nil {
					return err
				}
				tenants = append(tenants, tenant)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

// SetTenantState transitions a tenant's lifecycle state.
func (r *TenantRepository) SetTenantState(ctx context.Context, id core.TenantID, state core.TenantState) error {
	if err := core.ValidateTenantState(state); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		tenant, err := getTenant(tx, id)
		if err != nil {
			return err
		}
		if tenant.State == state {
			return nil
		}
		if !core.ValidTenantTransition(tenant.State, state) {
			return fmt.Errorf("%w: %s -> %s", core.ErrInvalidStateTransition, tenant.State, state)
		}
		tenant.State = state
		tenant.UpdatedAt = time.Now().UTC()
		return tx.Set(makeTenantKey(id), storage.MarshalTenant(tenant))
	}, true)
}

// AddAPIKey stores a hashed API key record for a tenant.
func (r *TenantRepository) AddAPIKey(ctx context.Context, record *core.APIKeyRecord) error {
	if record == nil || record.KeyId == "" || record.Tenant == "" || record.Hash == "" {
		return fmt.Errorf("%w: incomplete api key record", storage.ErrInvalidQuery)
	}

	stored := *record
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		return tx.Set(makeAPIKeyKey(stored.KeyId), storage.MarshalAPIKey(&stored))
	}, true)
}

// GetAPIKey retrieves an API key record by its public key ID.
func (r *TenantRepository) GetAPIKey(ctx context.Context, keyId string) (*core.APIKeyRecord, error) {
	var record *core.APIKeyRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeAPIKeyKey(keyId))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: api key %q", storage.ErrNotFound, keyId)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalAPIKey(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteAPIKeys removes all API key records for a tenant.
func (r *TenantRepository) DeleteAPIKeys(ctx context.Context, tenant core.TenantID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(apiKeyPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var doomed [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var owned bool
			err := item.Value(func(val []byte) error {
				record, err := storage.UnmarshalAPIKey(val)
				if err != nil {
					return err
				}
				owned = record.Tenant == tenant
				return nil
			})
			if err != nil {
				return err
			}
			if owned {
				doomed = append(doomed, item.KeyCopy(nil))
			}
		}
		for _, key := range doomed {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// Close releases repository resources. The backend itself is closed by
// its owner.
func (r *TenantRepository) Close() error {
	return nil
}

func getTenant(tx *badger.Txn, id core.TenantID) (*core.Tenant, error) {
	item, err := tx.Get(makeTenantKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: tenant %q", storage.ErrNotFound, id)
		}
		return nil, err
	}
	var tenant *core.Tenant
	if err := item.Value(func(val []byte) error {
		tenant, err = storage.UnmarshalTenant(val)
		return err
	}); err != nil {
		return nil, err
	}
	return tenant, nil
}
