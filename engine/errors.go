package engine

import "errors"

var (
	// ErrEmptyText is returned when there is nothing to ingest.
	ErrEmptyText = errors.New("engine: text is empty")

	// ErrEmptyQuery is returned when the question is blank.
	ErrEmptyQuery = errors.New("engine: query is empty")

	// ErrUnknownMode is returned for an unsupported query mode.
	ErrUnknownMode = errors.New("engine: unknown query mode")

	// ErrChunkIndexRequired is returned when no chunk index is supplied.
	ErrChunkIndexRequired = errors.New("engine: chunk index required")

	// ErrAIProviderRequired is returned when no AI provider is supplied.
	ErrAIProviderRequired = errors.New("engine: AI provider required")
)
