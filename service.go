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


package malrag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Blessan-Alex/MalRag/ai"
	"github.com/Blessan-Alex/MalRag/ai/gemini"
	"github.com/Blessan-Alex/MalRag/ai/mock"
	"github.com/Blessan-Alex/MalRag/ai/openai"
	"github.com/Blessan-Alex/MalRag/config"
	"github.com/Blessan-Alex/MalRag/credentials"
	"github.com/Blessan-Alex/MalRag/engine"
	"github.com/Blessan-Alex/MalRag/extract"
	"github.com/Blessan-Alex/MalRag/ingestion"
	"github.com/Blessan-Alex/MalRag/invoke"
	"github.com/Blessan-Alex/MalRag/jobs"
	"github.com/Blessan-Alex/MalRag/storage"
	"github.com/Blessan-Alex/MalRag/storage/badger"
	"github.com/Blessan-Alex/MalRag/storage/postgres"
)

// Service wires storage, the AI provider and the ingestion pipeline
// together for one process.
type Service struct {
	backend     *badger.Backend
	registry    storage.DocumentRegistry
	index       storage.ChunkIndex
	credentials *credentials.Pool
	provider    *ai.Provider
	engine      *engine.Engine
	jobs        *jobs.Store
	pipeline    *ingestion.Pipeline
	uploadDir   string
	logger      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	backend   ai.Backend
	logger    *slog.Logger
	observers []jobs.Observer
}

// WithAIBackend overrides the backend selected by the AI configuration.
func WithAIBackend(backend ai.Backend) ServiceOption {
	return func(o *serviceOptions) {
		o.backend = backend
	}
}

// WithServiceLogger sets the logger handed to every component.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithJobObserver registers fn on the job store.
func WithJobObserver(fn jobs.Observer) ServiceOption {
	return func(o *serviceOptions) {
		o.observers = append(o.observers, fn)
	}
}

// NewBackend returns the AI backend named by cfg.Provider.
func NewBackend(cfg *ai.Config) (ai.Backend, error) {
	switch cfg.Provider {
	case ai.ProviderGemini:
		b, err := gemini.NewBackend(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	case ai.ProviderOpenAI:
		b, err := openai.NewBackend(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	case ai.ProviderMock:
		return mock.NewBackend(), nil
	}
	return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
}

// Open builds a Service from cfg.
func Open(ctx context.Context, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	if options.backend == nil {
		backend, err := NewBackend(cfg.AI)
		if err != nil {
			return nil, err
		}
		options.backend = backend
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	s := &Service{uploadDir: cfg.UploadDir, logger: logger.With("component", "service")}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	var err error
	s.backend, err = badger.OpenBackend(cfg.DBPath, cfg.InMemory)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s.index, err = badger.NewChunkRepository(s.backend)
	if err != nil {
		return nil, err
	}

	if cfg.PostgresDSN != "" {
		s.registry, err = postgres.Open(ctx, cfg.PostgresDSN)
	} else {
		s.registry, err = badger.NewDocumentRepository(s.backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening document registry: %w", err)
	}

	s.credentials = credentials.NewPool(cfg.Keys)
	if s.credentials.Len() == 0 {
		s.logger.Warn("no API credentials configured; provider calls will fail")
	}

	invokerOpts := []invoke.Option{
		invoke.WithName(options.backend.Name()),
		invoke.WithDelay(cfg.AI.RetryDelay),
		invoke.WithAttemptTimeout(cfg.AI.AttemptTimeout),
		invoke.WithLogger(logger),
	}
	if cfg.AI.RequestsPerSecond > 0 {
		invokerOpts = append(invokerOpts, invoke.WithRateLimit(cfg.AI.RequestsPerSecond, 1))
	}
	inv, err := invoke.New(s.credentials, invokerOpts...)
	if err != nil {
		return nil, err
	}

	s.provider, err = ai.NewProvider(cfg.AI, options.backend, inv)
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithChunkSize(cfg.ChunkSize, cfg.ChunkOverlap),
		engine.WithBatchSize(cfg.AI.EmbeddingBatchSize),
		engine.WithLogger(logger),
	}
	if !cfg.Entities {
		engineOpts = append(engineOpts, engine.WithoutEntities())
	}
	s.engine, err = engine.New(s.index, s.provider, engineOpts...)
	if err != nil {
		return nil, err
	}

	storeOpts := []jobs.Option{jobs.WithLogger(logger)}
	for _, fn := range options.observers {
		storeOpts = append(storeOpts, jobs.WithObserver(fn))
	}
	s.jobs = jobs.NewStore(storeOpts...)

	pipelineOpts := []ingestion.Option{ingestion.WithLogger(logger)}
	if cfg.PoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(cfg.PoolSize))
	}
	if cfg.ExtractPoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithExtractPoolSize(cfg.ExtractPoolSize))
	}
	s.pipeline, err = ingestion.NewPipeline(s.jobs, extract.New(extract.WithLogger(logger)), s.engine, s.registry, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	ok = true
	return s, nil
}

// Close releases every component. It is safe on a partially opened Service.
func (s *Service) Close() error {
	var errs []error
	if s.pipeline != nil {
		s.pipeline.Release()
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			s.logger.Error("error closing document registry", "err", err)
			errs = append(errs, err)
		}
	}
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.logger.Error("error closing chunk index", "err", err)
			errs = append(errs, err)
		}
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) Pipeline() *ingestion.Pipeline {
	return s.pipeline
}

func (s *Service) Jobs() *jobs.Store {
	return s.jobs
}

func (s *Service) Engine() *engine.Engine {
	return s.engine
}

func (s *Service) Provider() *ai.Provider {
	return s.provider
}

func (s *Service) Registry() storage.DocumentRegistry {
	return s.registry
}

func (s *Service) Index() storage.ChunkIndex {
	return s.index
}

func (s *Service) Credentials() *credentials.Pool {
	return s.credentials
}

// UploadDir is where uploads wait for their job.
func (s *Service) UploadDir() string {
	return s.uploadDir
}
