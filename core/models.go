package core

//go:generate go run ../cmd/musgen

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for indexed chunks.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical chunk text always maps to the same ID, so re-ingesting a document
// overwrites its chunks instead of duplicating them.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// JobStatus is the coarse lifecycle state of an ingestion job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobStep is the fine-grained pipeline position of an ingestion job.
type JobStep string

const (
	JobStepUploaded       JobStep = "uploaded"
	JobStepExtractingText JobStep = "extracting_text"
	JobStepChunking       JobStep = "chunking"
	JobStepEmbedding      JobStep = "embedding"
	JobStepIndexing       JobStep = "indexing"
	JobStepReady          JobStep = "ready"
)

// Job tracks one uploaded file through the ingestion pipeline.
type Job struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Status    JobStatus `json:"status"`
	Step      JobStep   `json:"step"`
	Progress  int       `json:"progress"` // 0-100
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stage is a notification emitted by the content engine as it moves
// through its internal phases. Values outside the known set are legal
// and are ignored by consumers that do not understand them.
type Stage string

const (
	StageChunking           Stage = "chunking"
	StageEmbedding          Stage = "embedding"
	StageExtractingEntities Stage = "extracting_entities"
	StageIndexing           Stage = "indexing"
)

// StageFunc receives stage notifications. The engine does not advance
// until the function returns.
type StageFunc func(ctx context.Context, stage Stage)

// Document is a catalog entry for a successfully ingested file.
type Document struct {
	Filename        string    `json:"filename"`
	FirstRecordedAt time.Time `json:"first_recorded_at"`
	RecordedAt      time.Time `json:"recorded_at"`
	Count           int       `json:"count"` // number of successful ingestions
}

// Entity is a named thing extracted from document text.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Chunk is the unit stored in the vector index.
type Chunk struct {
	ID        ID        `json:"id"`
	Source    string    `json:"source,omitempty"`
	Position  int       `json:"position"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector,omitempty"`
	Entities  []Entity  `json:"entities,omitempty"`
	IndexedAt time.Time `json:"indexed_at"`
}

// SimilarityMatch is a chunk returned from vector similarity search.
type SimilarityMatch struct {
	Chunk *Chunk
	Score float32
}
