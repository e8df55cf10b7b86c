package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Extractor reads text out of PDF, DOCX and plain text files.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "extractor")
	return e
}

// Extract returns the text content of the file at path. filename is the
// name the file was uploaded with and selects the format.
func (e *Extractor) Extract(ctx context.Context, path, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	e.logger.Debug("extracting text", "filename", filename, "format", ext)

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = readPDF(path)
	case ".docx":
		text, err = readDOCX(path)
	default:
		text, err = readText(path)
	}
	if err != nil {
		return "", err
	}

	e.logger.Debug("extracted text", "filename", filename, "chars", len(text))
	return text, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
