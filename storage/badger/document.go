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

// DocumentRepository implements storage.DocumentRepository on BadgerDB.
type DocumentRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a document catalog on the given backend.
//
// Returns storage.DocumentRepository interface to enforce abstraction.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &DocumentRepository{
		backend: backend,
		logger:  slog.Default().With("component", "document-repository"),
	}, nil
}

// PutDocument inserts or replaces a document catalog record.
// Replacing keeps the name index consistent when a document is renamed.
func (r *DocumentRepository) PutDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	stored := *doc
	if stored.Id == "" {
		stored.Id = core.NewDocumentID()
	}
	now := time.Now().UTC()
	if stored.IngestedAt.IsZero() {
		stored.IngestedAt = now
	}
	stored.UpdatedAt = now

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := getDocument(tx, stored.Tenant, stored.Id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Name != stored.Name {
			if err := tx.Delete(makeDocNameKey(stored.Tenant, existing.Name)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeDocumentKey(stored.Tenant, stored.Id), storage.MarshalDocument(&stored)); err != nil {
			return err
		}
		return tx.Set(makeDocNameKey(stored.Tenant, stored.Name), []byte(stored.Id))
	}, true)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("document stored", "tenant", stored.Tenant, "document", stored.Id, "name", stored.Name)
	return &stored, nil
}

// GetDocument retrieves a document by ID within a tenant.
func (r *DocumentRepository) GetDocument(ctx context.Context, tenant core.TenantID, id core.DocumentID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = getDocument(tx, tenant, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocumentByName retrieves a tenant's document by name.
func (r *DocumentRepository) GetDocumentByName(ctx context.Context, tenant core.TenantID, name string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocNameKey(tenant, name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: document name %q", storage.ErrNotFound, name)
			}
			return err
		}
		var id core.DocumentID
		if err := item.Value(func(val []byte) error {
			id = core.DocumentID(val)
			return nil
		}); err != nil {
			return err
		}
		doc, err = getDocument(tx, tenant, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments retrieves all documents for a tenant, in any state.
func (r *DocumentRepository) ListDocuments(ctx context.Context, tenant core.TenantID) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentScanPrefix(tenant)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				doc, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
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
	return docs, nil
}

// SetDocumentState transitions a document's lifecycle state.
func (r *DocumentRepository) SetDocumentState(ctx context.Context, tenant core.TenantID, id core.DocumentID, state core.DocumentState) error {
	if err := core.ValidateDocumentState(state); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := getDocument(tx, tenant, id)
		if err != nil {
			return err
		}
		if doc.State == state {
			return nil
		}
		if !core.ValidDocumentTransition(doc.State, state) {
			return fmt.Errorf("%w: %s -> %s", core.ErrInvalidStateTransition, doc.State, state)
		}
		doc.State = state
		doc.UpdatedAt = time.Now().UTC()
		return tx.Set(makeDocumentKey(tenant, id), storage.MarshalDocument(doc))
	}, true)
}

// DeleteDocument removes a document catalog record outright.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, tenant core.TenantID, id core.DocumentID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := getDocument(tx, tenant, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil // re-deleting is a no-op
			}
			return err
		}
		if err := tx.Delete(makeDocNameKey(tenant, doc.Name)); err != nil {
			return err
		}
		return tx.Delete(makeDocumentKey(tenant, id))
	}, true)
}

// Close releases repository resources. The backend itself is closed by
// its owner.
func (r *DocumentRepository) Close() error {
	return nil
}

func getDocument(tx *badger.Txn, tenant core.TenantID, id core.DocumentID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(tenant, id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: document %q", storage.ErrNotFound, id)
		}
		return nil, err
	}
	var doc *core.Document
	if err := item.Value(func(val []byte) error {
		doc, err = storage.UnmarshalDocument(val)
		return err
	}); err != nil {
		return nil, err
	}
	return doc, nil
}
