package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"github.com/Blessan-Alex/MalRag/invoke"
)

// ErrNilBackend is returned by NewProvider when no backend is given.
var ErrNilBackend = errors.New("ai: backend cannot be nil")

// Provider implements every AI service on top of a Backend. Each call is
// run through the invoker, so a failing credential is rotated out and the
// call retried with the next one.
type Provider struct {
	config  *Config
	backend Backend
	invoker *invoke.Invoker
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[string]*cachedClient
}

type cachedClient struct {
	model    Client
	embedder embeddings.Embedder
}

var (
	_ AIProvider      = (*Provider)(nil)
	_ Embedder        = (*Provider)(nil)
	_ EntityExtractor = (*Provider)(nil)
	_ Completer       = (*Provider)(nil)
	_ Transcriber     = (*Provider)(nil)
)

// NewProvider creates a provider. The config is validated and normalized
// before use; inv carries the credential pool and retry timing.
func NewProvider(config *Config, backend Backend, inv *invoke.Invoker) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	if inv == nil {
		return nil, invoke.ErrNilCredentials
	}
	return &Provider{
		config:  config,
		backend: backend,
		invoker: inv,
		logger:  slog.Default().With("component", backend.Name()+"-provider"),
		clients: make(map[string]*cachedClient),
	}, nil
}

// client returns the cached client for credential, creating it on first use.
func (p *Provider) client(ctx context.Context, credential string) (*cachedClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[credential]; ok {
		return c, nil
	}
	model, err := p.backend.NewClient(ctx, credential)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(model,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(p.config.EmbeddingBatchSize))
	if err != nil {
		return nil, err
	}
	c := &cachedClient{model: model, embedder: embedder}
	p.clients[credential] = c
	return c, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() Embedder { return p }

// EntityExtractor returns the entity extraction service.
func (p *Provider) EntityExtractor() EntityExtractor { return p }

// Completer returns the completion service.
func (p *Provider) Completer() Completer { return p }

// Transcriber returns the transcription service.
func (p *Provider) Transcriber() Transcriber { return p }

// Close drops cached clients.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider")
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.clients)
	return nil
}

// EmbedText generates a vector embedding for a single text string.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	p.logger.Debug("generating embedding for single text", "length", len(text))

	return invoke.Do(ctx, p.invoker, fmt.Sprintf("embed query of %d chars", len(text)), p.config.MaxAttempts,
		func(ctx context.Context, key string) ([]float32, error) {
			c, err := p.client(ctx, key)
			if err != nil {
				return nil, err
			}
			return c.embedder.EmbedQuery(ctx, text)
		})
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (p *Provider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	p.logger.Debug("generating embeddings for texts", "count", len(texts))
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := invoke.Do(ctx, p.invoker, fmt.Sprintf("embed %d texts", len(texts)), p.config.MaxAttempts,
		func(ctx context.Context, key string) ([][]float32, error) {
			c, err := p.client(ctx, key)
			if err != nil {
				return nil, err
			}
			return c.embedder.EmbedDocuments(ctx, texts)
		})
	if err != nil {
		p.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// Complete answers prompt with the completion model.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	return invoke.Do(ctx, p.invoker, fmt.Sprintf("completion prompt of %d chars", len(prompt)), p.config.MaxAttempts,
		func(ctx context.Context, key string) (string, error) {
			c, err := p.client(ctx, key)
			if err != nil {
				return "", err
			}
			return llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithTemperature(0.2))
		})
}

// Transcribe sends audio to the completion model and returns the transcript.
func (p *Provider) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, audio),
				llms.TextPart(TranscriptionPrompt),
			},
		},
	}

	return invoke.Do(ctx, p.invoker, fmt.Sprintf("transcribe %d bytes of %s", len(audio), mimeType), p.config.MaxAttempts,
		func(ctx context.Context, key string) (string, error) {
			c, err := p.client(ctx, key)
			if err != nil {
				return "", err
			}
			resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(0.0))
			if err != nil {
				return "", err
			}
			if len(resp.Choices) == 0 {
				return "", ErrNoChoices
			}
			return resp.Choices[0].Content, nil
		})
}

// ExtractEntities asks the completion model for the entities in text.
// A response that cannot be parsed fails the attempt, so it is retried
// like any other provider error.
func (p *Provider) ExtractEntities(ctx context.Context, text string) ([]ExtractedEntity, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(entityPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	entities, err := invoke.Do(ctx, p.invoker, fmt.Sprintf("extract entities from %d chars", len(text)), p.config.MaxAttempts,
		func(ctx context.Context, key string) ([]ExtractedEntity, error) {
			c, err := p.client(ctx, key)
			if err != nil {
				return nil, err
			}
			resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
			if err != nil {
				return nil, err
			}
			if len(resp.Choices) < 1 {
				p.logger.Debug("no choices returned from model")
				return []ExtractedEntity{}, nil
			}
			return ParseEntities(resp.Choices[0].Content)
		})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("extracted entities", "count", len(entities))
	return entities, nil
}
