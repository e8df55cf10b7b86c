// Package jobs provides the in-memory registry of ingestion jobs.
//
// The Store is the single source of truth for a job's status, step,
// progress and message. It enforces the lifecycle rules itself so that no
// caller can drive a job into an inconsistent state:
//
//   - a completed job is always at step ready with progress 100
//   - a failed job has progress 0 and its message holds the cause
//   - terminal jobs are never mutated again
//   - progress never decreases while a job is queued or processing
//
// Updates to unknown IDs are silent no-ops. Readers always receive copies.
package jobs
