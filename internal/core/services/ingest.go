package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/kbquery/internal/chunker"
	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/logger"
	"github.com/custodia-labs/kbquery/internal/validator"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// RecordFiles reads and writes record files.
type RecordFiles interface {
	driven.RecordReader
	driven.RecordWriter
}

// IngestService prepares record files for reindexing.
type IngestService struct {
	loader    driven.SourceLoader
	files     RecordFiles
	chunker   *chunker.Chunker
	validator *validator.Validator
}

// NewIngestService creates an ingest service.
func NewIngestService(
	loader driven.SourceLoader,
	files RecordFiles,
	c *chunker.Chunker,
	v *validator.Validator,
) *IngestService {
	if c == nil {
		c = chunker.New()
	}
	if v == nil {
		v = validator.New()
	}
	return &IngestService{loader: loader, files: files, chunker: c, validator: v}
}

// Chunk splits every document named by the manifest and writes raw records.
func (s *IngestService) Chunk(ctx context.Context, manifestPath, outputPath string) (*driving.IngestSummary, error) {
	logger.Section("Chunking")

	texts, err := s.loader.LoadSources(ctx, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	var records []domain.RawRecord
	for _, text := range texts {
		chunks := s.chunker.Chunk(text)
		if len(chunks) == 0 {
			logger.Warn("%s produced no chunks", text.SourceID)
		}
		logger.Debug("%s: %d chunks", text.SourceID, len(chunks))
		for _, c := range chunks {
			records = append(records, c.Raw())
		}
	}

	if err := s.files.WriteRecords(ctx, outputPath, records); err != nil {
		return nil, fmt.Errorf("write records: %w", err)
	}

	logger.Info("chunked %d sources into %d records", len(texts), len(records))
	return &driving.IngestSummary{
		Sources:    len(texts),
		Chunks:     len(records),
		OutputPath: outputPath,
	}, nil
}

// Validate filters raw records into clean records.
func (s *IngestService) Validate(ctx context.Context, inputPath, outputPath string) (*domain.ValidationReport, error) {
	logger.Section("Validation")

	raws, skipped, err := s.files.ReadRecords(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	report := s.validator.ValidateAll(raws)
	if skipped > 0 {
		report.Rejected[domain.RejectMalformed] += skipped
		report.Total += skipped
	}

	clean := make([]domain.RawRecord, 0, len(report.Accepted))
	for _, r := range report.Accepted {
		clean = append(clean, r.Raw())
	}
	if err := s.files.WriteRecords(ctx, outputPath, clean); err != nil {
		return nil, fmt.Errorf("write records: %w", err)
	}
	return report, nil
}
