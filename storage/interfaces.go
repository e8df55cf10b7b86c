// Copyright 2025 Blessan Alex
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"

	"github.com/Blessan-Alex/MalRag/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the repository and releases resources.
	Close() error
}

// DocumentRegistry is the catalog of successfully ingested files.
type DocumentRegistry interface {
	Repository

	// Record notes that filename was ingested. Recording the same filename
	// again refreshes RecordedAt and increments Count; it never creates a
	// second entry.
	Record(ctx context.Context, filename string) error

	// GetDocument returns the entry for filename.
	// Returns ErrNotFound if the file was never recorded.
	GetDocument(ctx context.Context, filename string) (*core.Document, error)

	// ListDocuments returns every entry, most recently recorded first.
	ListDocuments(ctx context.Context) ([]*core.Document, error)
}

// ChunkIndex stores embedded chunks and answers similarity queries.
type ChunkIndex interface {
	Repository

	// AddChunks stores chunks. Chunks with ID=0 get a content-based ID.
	// Sets IndexedAt if not already set. An existing chunk with the same
	// ID is overwritten.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with cosine similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error)
}
