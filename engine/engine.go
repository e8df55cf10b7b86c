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


package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/Blessan-Alex/MalRag/ai"
	"github.com/Blessan-Alex/MalRag/core"
	"github.com/Blessan-Alex/MalRag/storage"
)

const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 100
	DefaultBatchSize    = 32
)

// Engine chunks, embeds, enriches and indexes document text.
type Engine struct {
	index        storage.ChunkIndex
	embedder     ai.Embedder
	extractor    ai.EntityExtractor
	completer    ai.Completer
	chunkSize    int
	chunkOverlap int
	batchSize    int
	entities     bool
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithChunkSize sets the target chunk size and overlap in characters.
func WithChunkSize(size, overlap int) Option {
	return func(e *Engine) error {
		if size < 1 || overlap < 0 || overlap >= size {
			return fmt.Errorf("engine: invalid chunk size %d with overlap %d", size, overlap)
		}
		e.chunkSize = size
		e.chunkOverlap = overlap
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		e.batchSize = size
		return nil
	}
}

// WithoutEntities skips the entity extraction phase. The stage is still
// reported so progress advances the same way.
func WithoutEntities() Option {
	return func(e *Engine) error {
		e.entities = false
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an Engine that stores chunks in index and uses provider for
// embeddings, entity extraction and answers.
func New(index storage.ChunkIndex, provider ai.AIProvider, opts ...Option) (*Engine, error) {
	if index == nil {
		return nil, ErrChunkIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		index:        index,
		embedder:     provider.Embedder(),
		extractor:    provider.EntityExtractor(),
		completer:    provider.Completer(),
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		batchSize:    DefaultBatchSize,
		entities:     true,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "engine")
	return e, nil
}

// Ingest indexes text as chunks attributed to source. onStage may be nil.
func (e *Engine) Ingest(ctx context.Context, source, text string, onStage core.StageFunc) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	notify := func(stage core.Stage) {
		if onStage != nil {
			onStage(ctx, stage)
		}
	}
	start := time.Now()

	notify(core.StageChunking)
	chunks, err := e.split(source, text)
	if err != nil {
		return err
	}
	e.logger.Debug("split text", "source", source, "chunks", len(chunks))

	notify(core.StageEmbedding)
	if err := e.embed(ctx, chunks); err != nil {
		return err
	}

	notify(core.StageExtractingEntities)
	if e.entities {
		if err := e.extractEntities(ctx, chunks); err != nil {
			return err
		}
	}

	notify(core.StageIndexing)
	if _, err := e.index.AddChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("indexing chunks: %w", err)
	}

	e.logger.Info("ingested text",
		"source", source,
		"chunks", len(chunks),
		"duration", time.Since(start))
	return nil
}

func (e *Engine) split(source, text string) ([]*core.Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(e.chunkSize),
		textsplitter.WithChunkOverlap(e.chunkOverlap),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("chunking text: %w", err)
	}

	chunks := make([]*core.Chunk, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, &core.Chunk{
			ID:       core.IDFromContent(part),
			Source:   source,
			Position: len(chunks),
			Text:     part,
		})
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}
	return chunks, nil
}

func (e *Engine) embed(ctx context.Context, chunks []*core.Chunk) error {
	for start := 0; start < len(chunks); start += e.batchSize {
		end := min(start+e.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := e.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
		}
		for i := range batch {
			batch[i].Vector = vectors[i]
		}
	}
	return nil
}

func (e *Engine) extractEntities(ctx context.Context, chunks []*core.Chunk) error {
	for _, c := range chunks {
		extracted, err := e.extractor.ExtractEntities(ctx, c.Text)
		if err != nil {
			return fmt.Errorf("extracting entities from chunk %d: %w", c.Position, err)
		}
		c.Entities = toEntities(extracted)
	}
	return nil
}

func toEntities(extracted []ai.ExtractedEntity) []core.Entity {
	if len(extracted) == 0 {
		return nil
	}
	out := make([]core.Entity, len(extracted))
	for i, x := range extracted {
		out[i] = core.Entity{Name: x.Name, Type: x.Type}
	}
	return out
}
