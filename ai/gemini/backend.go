package gemini

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/Blessan-Alex/MalRag/ai"
)

// Backend implements ai.Backend using langchaingo's googleai client.
type Backend struct {
	config *ai.Config
	logger *slog.Logger
}

var _ ai.Backend = (*Backend)(nil)

// NewBackend creates a Gemini backend. The config is validated first.
func NewBackend(config *ai.Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Backend{
		config: config,
		logger: slog.Default().With("component", "gemini-backend"),
	}, nil
}

// Name returns "gemini".
func (b *Backend) Name() string {
	return ai.ProviderGemini
}

// NewClient builds a googleai client authenticated with credential.
func (b *Backend) NewClient(ctx context.Context, credential string) (ai.Client, error) {
	b.logger.Debug("creating client", "model", b.config.CompletionModel, "embeddingModel", b.config.EmbeddingModel)

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(credential),
		googleai.WithDefaultModel(b.config.CompletionModel),
		googleai.WithDefaultEmbeddingModel(b.config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
