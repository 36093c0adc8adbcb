package driving

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// IngestSummary describes one chunking pass over a manifest.
type IngestSummary struct {
	// Sources is the number of documents read.
	Sources int

	// Chunks is the number of records written.
	Chunks int

	// OutputPath is where the records were written.
	OutputPath string
}

// IngestService turns source documents into validated record files.
type IngestService interface {
	// Chunk splits every document named by the manifest and writes raw records.
	Chunk(ctx context.Context, manifestPath, outputPath string) (*IngestSummary, error)

	// Validate filters raw records into clean records.
	Validate(ctx context.Context, inputPath, outputPath string) (*domain.ValidationReport, error)
}
