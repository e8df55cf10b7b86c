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


package openai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Blessan-Alex/MalRag/ai"
)

// Backend implements ai.Backend using OpenAI-compatible services.
type Backend struct {
	config *ai.Config
	logger *slog.Logger
}

var _ ai.Backend = (*Backend)(nil)

// NewBackend creates an OpenAI-compatible backend.
// The config is validated and normalized before use.
func NewBackend(config *ai.Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Backend{
		config: config,
		logger: slog.Default().With("component", "openai-backend"),
	}, nil
}

// Name returns "openai".
func (b *Backend) Name() string {
	return ai.ProviderOpenAI
}

// NewClient builds a client using credential as the API token.
func (b *Backend) NewClient(_ context.Context, credential string) (ai.Client, error) {
	opts := []openai.Option{
		openai.WithToken(credential),
		openai.WithModel(b.config.CompletionModel),
		openai.WithEmbeddingModel(b.config.EmbeddingModel),
	}
	if b.config.Host != "" {
		opts = append(opts, openai.WithBaseURL(b.config.Host))
	}
	b.logger.Debug("creating client", "host", b.config.Host, "model", b.config.CompletionModel)
	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
