package ingestion

import "errors"

var (
	// ErrJobStoreRequired is returned when a job store is not provided.
	ErrJobStoreRequired = errors.New("job store required")

	// ErrExtractorRequired is returned when a text extractor is not provided.
	ErrExtractorRequired = errors.New("text extractor required")

	// ErrEngineRequired is returned when a content engine is not provided.
	ErrEngineRequired = errors.New("content engine required")

	// ErrDocumentRegistryRequired is returned when a document registry is not provided.
	ErrDocumentRegistryRequired = errors.New("document registry required")
)
