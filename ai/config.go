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


package ai

import (
	"errors"
	"strings"
	"time"
)

// Supported provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Provider selects the backend: "gemini", "openai" or "mock".
	Provider string

	// Host is the base URL for OpenAI-compatible services.
	// Example: "http://localhost:11434/v1" for a local server. Unused by gemini.
	Host string

	// CompletionModel is the model used for answers, entity extraction and
	// transcription.
	// Example: "gemini-1.5-flash", "gpt-4o-mini"
	CompletionModel string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-004", "text-embedding-3-small"
	EmbeddingModel string

	// MaxAttempts bounds the attempts of every provider call, including
	// the first. Default: 3
	MaxAttempts int

	// RetryDelay is the fixed wait between attempts. Default: 1s
	RetryDelay time.Duration

	// AttemptTimeout bounds a single attempt. Zero disables it. Default: 60s
	AttemptTimeout time.Duration

	// RequestsPerSecond throttles provider calls. Zero means unlimited.
	RequestsPerSecond float64

	// EmbeddingBatchSize is the number of texts sent per embedding request.
	// Default: 32
	EmbeddingBatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the backend name.
func WithProvider(name string) ConfigOption {
	return func(c *Config) {
		c.Provider = name
	}
}

// WithHost sets the service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithMaxAttempts sets the attempt budget per provider call.
func WithMaxAttempts(n int) ConfigOption {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithRetryDelay sets the fixed wait between attempts.
func WithRetryDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// WithAttemptTimeout sets the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.AttemptTimeout = d
	}
}

// WithRequestsPerSecond throttles provider calls.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// WithEmbeddingBatchSize sets the embedding request batch size.
func WithEmbeddingBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingBatchSize = n
	}
}

// DefaultConfig returns a Config targeting Gemini with the retry policy
// the ingestion pipeline expects.
func DefaultConfig() *Config {
	return &Config{
		Provider:           ProviderGemini,
		CompletionModel:    "gemini-1.5-flash",
		EmbeddingModel:     "text-embedding-004",
		MaxAttempts:        3,
		RetryDelay:         time.Second,
		AttemptTimeout:     60 * time.Second,
		EmbeddingBatchSize: 32,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// For the openai provider it adds the /v1 suffix to the host if missing,
// which is required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == ProviderOpenAI && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderMock:
	case "":
		return errors.New("ai config: Provider is required")
	default:
		return errors.New("ai config: unknown Provider " + c.Provider)
	}
	if c.CompletionModel == "" {
		return errors.New("ai config: CompletionModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.MaxAttempts < 1 {
		return errors.New("ai config: MaxAttempts must be at least 1")
	}
	if c.RetryDelay < 0 {
		return errors.New("ai config: RetryDelay cannot be negative")
	}
	if c.AttemptTimeout < 0 {
		return errors.New("ai config: AttemptTimeout cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	if c.EmbeddingBatchSize < 1 {
		return errors.New("ai config: EmbeddingBatchSize must be at least 1")
	}
	return nil
}
