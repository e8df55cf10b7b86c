package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Blessan-Alex/MalRag/core"
	"github.com/Blessan-Alex/MalRag/storage"
)

// ChunkRepository implements storage.ChunkIndex for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkIndex = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// AddChunks stores chunks in a single transaction. Large batches are
// split when the transaction grows too big.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	now := time.Now().UTC()
	for _, chunk := range chunks {
		if chunk.ID == 0 {
			chunk.ID = core.IDFromContent(chunk.Text)
		}
		if chunk.IndexedAt.IsZero() {
			chunk.IndexedAt = now
		}
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	pending := chunks
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		written := 0
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, chunk := range pending {
				err := tx.Set(makeChunkKey(chunk.ID), storage.MarshalChunk(chunk))
				if errors.Is(err, badger.ErrTxnTooBig) && written > 0 {
					break
				}
				if err != nil {
					return err
				}
				written++
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return nil, err
		}
		pending = pending[written:]
	}

	return chunks, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// CountChunks counts stored chunks with a key-only scan.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
