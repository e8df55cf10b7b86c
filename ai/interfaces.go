package ai

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EntityExtractor extracts named entities from text.
// Implementations must be thread-safe for concurrent use.
type EntityExtractor interface {
	// ExtractEntities returns the entities mentioned in text.
	// Returns an empty slice if none are found.
	ExtractEntities(ctx context.Context, text string) ([]ExtractedEntity, error)
}

// Completer answers a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// ExtractedEntity is an entity identified in text.
type ExtractedEntity struct {
	// Name is the entity as written in the text.
	Name string `json:"name"`

	// Type categorizes the entity. It is one of EntityTypes.
	Type string `json:"type"`
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	Embedder() Embedder
	EntityExtractor() EntityExtractor
	Completer() Completer
	Transcriber() Transcriber

	// Close releases resources held by the provider and its services.
	Close() error
}

// Client is the per-credential handle a Backend produces. Both
// langchaingo's googleai and openai clients satisfy it.
type Client interface {
	llms.Model
	embeddings.EmbedderClient
}

// Backend creates provider clients for a given credential.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// NewClient builds a client authenticated with credential.
	NewClient(ctx context.Context, credential string) (Client, error)
}
