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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/panjf2000/ants/v2"

	"github.com/Blessan-Alex/MalRag/core"
	"github.com/Blessan-Alex/MalRag/jobs"
	"github.com/Blessan-Alex/MalRag/storage"
)

// TextExtractor turns an uploaded file into plain text.
// filename is the original upload name and selects the format.
type TextExtractor interface {
	Extract(ctx context.Context, path, filename string) (string, error)
}

// ContentEngine indexes document text, reporting each phase through onStage
// and waiting for it to return before starting the phase.
type ContentEngine interface {
	Ingest(ctx context.Context, source, text string, onStage core.StageFunc) error
}

// TextSource is the chunk source recorded for text ingested without a file.
const TextSource = "text"

// Pipeline orchestrates background ingestion of uploaded files.
type Pipeline struct {
	store       *jobs.Store
	extractor   TextExtractor
	engine      ContentEngine
	registry    storage.DocumentRegistry
	runPool     *ants.Pool
	extractPool *ants.Pool
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets how many files are processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		pool, err := newPool(size)
		if err != nil {
			return err
		}
		if p.runPool != nil {
			p.runPool.Release()
		}
		p.runPool = pool
		return nil
	}
}

// WithExtractPoolSize sets how many text extractions run at once.
// Extraction is CPU bound, so the default is runtime.NumCPU().
func WithExtractPoolSize(size int) Option {
	return func(p *Pipeline) error {
		pool, err := newPool(size)
		if err != nil {
			return err
		}
		if p.extractPool != nil {
			p.extractPool.Release()
		}
		p.extractPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

func newPool(size int) (*ants.Pool, error) {
	if size < 1 {
		size = 1
	}
	return ants.NewPool(size)
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store *jobs.Store,
	extractor TextExtractor,
	engine ContentEngine,
	registry storage.DocumentRegistry,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrJobStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if registry == nil {
		return nil, ErrDocumentRegistryRequired
	}

	runPool, err := newPool(runtime.NumCPU() / 2)
	if err != nil {
		return nil, err
	}
	extractPool, err := newPool(runtime.NumCPU())
	if err != nil {
		runPool.Release()
		return nil, err
	}

	p := &Pipeline{
		store:       store,
		extractor:   extractor,
		engine:      engine,
		registry:    registry,
		runPool:     runPool,
		extractPool: extractPool,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Submit registers a new job for filename and returns its ID.
func (p *Pipeline) Submit(filename string) string {
	return p.store.Create(filename)
}

// Start runs the job in the background and returns immediately.
// The pipeline takes ownership of filePath and removes it when the run ends.
// If the worker pool refuses the task the job is failed and the file removed.
func (p *Pipeline) Start(jobID, filePath, filename string) error {
	err := p.runPool.Submit(func() {
		p.Run(context.Background(), jobID, filePath, filename)
	})
	if err != nil {
		p.store.MarkFailed(jobID, fmt.Sprintf("Could not schedule processing: %v", err))
		p.removeUpload(jobID, filePath)
		return fmt.Errorf("scheduling job %s: %w", jobID, err)
	}
	return nil
}

// Get returns a snapshot of the job.
func (p *Pipeline) Get(jobID string) (*core.Job, error) {
	return p.store.Get(jobID)
}

// Jobs returns snapshots of every job, newest first.
func (p *Pipeline) Jobs() []core.Job {
	return p.store.List()
}

// IngestText indexes text directly without creating a job.
// Errors are returned to the caller.
func (p *Pipeline) IngestText(ctx context.Context, text string) error {
	return p.engine.Ingest(ctx, TextSource, text, nil)
}

// Run processes a single upload to completion. It never returns an error;
// the outcome is recorded on the job.
func (p *Pipeline) Run(ctx context.Context, jobID, filePath, filename string) {
	logger := p.logger.With("job_id", jobID, "filename", filename)

	defer p.removeUpload(jobID, filePath)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing job", "panic", r)
			p.store.MarkFailed(jobID, panicMessage)
		}
	}()

	if reason := validateUpload(filePath, filename); reason != "" {
		logger.Warn("rejecting upload", "reason", reason)
		p.store.MarkFailed(jobID, reason)
		return
	}

	p.store.Update(jobID,
		jobs.WithStatus(core.JobStatusProcessing),
		jobs.WithStep(core.JobStepExtractingText),
		jobs.WithProgress(extractingProgress),
		jobs.WithMessage(extractingMessage),
	)

	text, err := p.extract(ctx, filePath, filename)
	if err != nil {
		logger.Warn("text extraction failed", "err", err)
		p.store.MarkFailed(jobID, fmt.Sprintf("Parsing failed: %v", err))
		return
	}
	logger.Info("file parsed", "chars", len(text))

	p.store.Update(jobID,
		jobs.WithStep(core.JobStepChunking),
		jobs.WithProgress(chunkingProgress),
		jobs.WithMessage(chunkingMessage),
	)

	onStage := func(_ context.Context, stage core.Stage) {
		sp, ok := engineStages[stage]
		if !ok {
			logger.Debug("ignoring unknown engine stage", "stage", stage)
			return
		}
		p.store.Update(jobID, sp.changes()...)
	}

	if err := p.engine.Ingest(ctx, filename, text, onStage); err != nil {
		logger.Error("failed to process job", "err", err)
		p.store.MarkFailed(jobID, err.Error())
		return
	}

	if err := p.registry.Record(ctx, filename); err != nil {
		logger.Error("failed to record document", "err", err)
		p.store.MarkFailed(jobID, fmt.Sprintf("Recording document failed: %v", err))
		return
	}

	p.store.Update(jobID,
		jobs.WithStatus(core.JobStatusCompleted),
		jobs.WithMessage(jobs.CompletedMessage),
	)
	logger.Info("job complete")
}

// extract runs the extractor on the extraction pool and waits for it.
func (p *Pipeline) extract(ctx context.Context, filePath, filename string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	err := p.extractPool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("extractor panic: %v", r)}
			}
		}()
		text, err := p.extractor.Extract(ctx, filePath, filename)
		done <- result{text: text, err: err}
	})
	if err != nil {
		return "", err
	}

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// validateUpload returns a failure reason, or "" if the file can be processed.
func validateUpload(filePath, filename string) string {
	info, err := os.Stat(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Sprintf("File not found: %s", filename)
	case err != nil:
		return fmt.Sprintf("File could not be read: %s: %v", filename, err)
	case info.IsDir():
		return fmt.Sprintf("Uploaded path is a directory: %s", filename)
	case info.Size() == 0:
		return fmt.Sprintf("Uploaded file is empty: %s", filename)
	}
	return ""
}

func (p *Pipeline) removeUpload(jobID, filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("failed to remove upload", "job_id", jobID, "path", filePath, "err", err)
	}
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.runPool != nil {
		p.runPool.Release()
	}
	if p.extractPool != nil {
		p.extractPool.Release()
	}
}
