package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Blessan-Alex/MalRag/core"
	"github.com/Blessan-Alex/MalRag/storage"
)

// DocumentRepository implements storage.DocumentRegistry for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	now     func() time.Time
}

var _ storage.DocumentRegistry = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases resources. DocumentRepository has no resources to release.
func (r *DocumentRepository) Close() error {
	return nil
}

const maxConflictRetries = 10

// Record inserts or refreshes the entry for filename.
func (r *DocumentRepository) Record(ctx context.Context, filename string) error {
	if filename == "" {
		return storage.ErrInvalidQuery
	}

	// Concurrent records of the same file conflict on commit; the loser
	// re-reads and tries again.
	var err error
	for range maxConflictRetries {
		err = r.record(filename)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (r *DocumentRepository) record(filename string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(filename)
		now := r.now()

		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			doc = &core.Document{Filename: filename, FirstRecordedAt: now}
		}
		doc.RecordedAt = now
		doc.Count++

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves the entry for filename.
func (r *DocumentRepository) GetDocument(ctx context.Context, filename string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, makeDocumentKey(filename))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// ListDocuments returns every entry, most recently recorded first.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
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

	slices.SortFunc(docs, func(a, b *core.Document) int {
		return b.RecordedAt.Compare(a.RecordedAt)
	})
	return docs, nil
}

// readDocument reads a document entry within a transaction.
// Returns nil, nil if the entry doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}
