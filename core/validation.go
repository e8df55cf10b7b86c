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


package core

import (
	"fmt"
	"time"
)

// ValidateJob validates a Job according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Status and Step must be known values
//   - Progress must be within 0-100
//   - A completed job must be at step ready with progress 100
//   - A failed job must have progress 0
func ValidateJob(job *Job) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}

	if job.ID == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidJob)
	}

	if err := ValidateStatus(job.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	if err := ValidateStep(job.Step); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	if job.Progress < 0 || job.Progress > 100 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidJob, ErrProgressOutOfRange, job.Progress)
	}

	switch job.Status {
	case JobStatusCompleted:
		if job.Step != JobStepReady || job.Progress != 100 {
			return fmt.Errorf("%w: completed job must be ready at 100%%", ErrInvalidJob)
		}
	case JobStatusFailed:
		if job.Progress != 0 {
			return fmt.Errorf("%w: failed job must have zero progress", ErrInvalidJob)
		}
	}

	return nil
}

// ValidateStatus validates that a JobStatus has a known value.
func ValidateStatus(status JobStatus) error {
	switch status {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// ValidateStep validates that a JobStep has a known value.
func ValidateStep(step JobStep) error {
	switch step {
	case JobStepUploaded, JobStepExtractingText, JobStepChunking,
		JobStepEmbedding, JobStepIndexing, JobStepReady:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStep, step)
}

// ValidateChunk validates a Chunk before it is written to the index.
//
// NOT validated (populated by the engine):
//   - Vector (may be empty when embeddings are disabled)
//   - Entities
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if !IsValidTimestamp(chunk.IndexedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
