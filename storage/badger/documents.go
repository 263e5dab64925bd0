package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
)

// DocumentStore implements storage.DocumentRepository for BadgerDB.
type DocumentStore struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentStore)(nil)

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(backend *Backend) *DocumentStore {
	return &DocumentStore{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *DocumentStore) Close() error {
	return nil
}

// SaveDocument inserts or replaces a document record.
func (r *DocumentStore) SaveDocument(ctx context.Context, record *core.DocumentRecord) error {
	if record == nil {
		return core.ErrInvalidDocument
	}
	if err := core.ValidateDocumentID(record.ID); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidDocument, err)
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDocumentKey(record.ID), storage.MarshalDocumentRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document record by ID.
func (r *DocumentStore) GetDocument(ctx context.Context, id string) (*core.DocumentRecord, error) {
	var record *core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalDocumentRecord(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListDocuments returns all document records in ID order.
func (r *DocumentStore) ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error) {
	var records []*core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scan(ctx, tx, []byte(documentPrefix+":"), nil, func(item *badger.Item) (bool, error) {
			return true, item.Value(func(val []byte) error {
				record, err := storage.UnmarshalDocumentRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}
