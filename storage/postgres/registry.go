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


// Package postgres provides a storage.DocumentRegistry backed by PostgreSQL.
//
// It is used instead of the badger registry when several service
// instances need to share one document catalog.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Blessan-Alex/MalRag/core"
	"github.com/Blessan-Alex/MalRag/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	filename          TEXT PRIMARY KEY,
	first_recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	recorded_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	count             INTEGER NOT NULL DEFAULT 1
);`

const upsertDocument = `INSERT INTO documents (filename)
VALUES ($1)
ON CONFLICT (filename) DO UPDATE SET
	recorded_at = now(),
	count = documents.count + 1;`

const selectDocument = `SELECT filename, first_recorded_at, recorded_at, count
FROM documents WHERE filename = $1;`

const selectDocuments = `SELECT filename, first_recorded_at, recorded_at, count
FROM documents ORDER BY recorded_at DESC, filename;`

// Registry implements storage.DocumentRegistry on a pgx connection pool.
type Registry struct {
	db     *pgxpool.Pool
	owned  bool
	logger *slog.Logger
}

var _ storage.DocumentRegistry = (*Registry)(nil)

// Open connects to dsn, ensures the schema exists and returns a registry
// that closes the pool on Close.
func Open(ctx context.Context, dsn string) (*Registry, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	r, err := NewRegistry(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	r.owned = true
	return r, nil
}

// NewRegistry wraps an existing pool. The caller keeps ownership of it.
func NewRegistry(ctx context.Context, db *pgxpool.Pool) (*Registry, error) {
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &Registry{
		db:     db,
		logger: slog.Default().With("component", "postgres-registry"),
	}, nil
}

// Close closes the pool if the registry opened it.
func (r *Registry) Close() error {
	if r.owned {
		r.db.Close()
	}
	return nil
}

// Record inserts filename or bumps its timestamp and count.
func (r *Registry) Record(ctx context.Context, filename string) error {
	if filename == "" {
		return storage.ErrInvalidQuery
	}
	if _, err := r.db.Exec(ctx, upsertDocument, filename); err != nil {
		return fmt.Errorf("recording %s: %w", filename, err)
	}
	r.logger.Debug("document recorded", "filename", filename)
	return nil
}

// GetDocument returns the entry for filename.
func (r *Registry) GetDocument(ctx context.Context, filename string) (*core.Document, error) {
	var doc core.Document
	err := r.db.QueryRow(ctx, selectDocument, filename).
		Scan(&doc.Filename, &doc.FirstRecordedAt, &doc.RecordedAt, &doc.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns every entry, most recently recorded first.
func (r *Registry) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	rows, err := r.db.Query(ctx, selectDocuments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*core.Document
	for rows.Next() {
		var doc core.Document
		if err := rows.Scan(&doc.Filename, &doc.FirstRecordedAt, &doc.RecordedAt, &doc.Count); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}
