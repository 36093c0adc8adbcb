package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// Ensure AblationService implements the interface.
var _ driving.AblationService = (*AblationService)(nil)

// AblationDeps builds the pipeline for each combination.
type AblationDeps struct {
	// Ingest returns an ingest service chunking at size.
	Ingest func(chunkSize int) driving.IngestService

	// Query returns a query service embedding with model and keeping its
	// index under dir. The returned func releases the provider.
	Query func(model, dir string) (driving.QueryService, func() error, error)

	Evals driven.EvalStore
}

// AblationService sweeps chunk size, embedding model and top-k and scores
// each combination with the eval pass.
type AblationService struct {
	deps AblationDeps
}

// NewAblationService creates an ablation service.
func NewAblationService(deps AblationDeps) *AblationService {
	return &AblationService{deps: deps}
}

// Run ingests once per chunk size, indexes once per model and evaluates once
// per top-k. Every artifact lives under req.WorkDir so the configured index
// is left alone.
func (s *AblationService) Run(ctx context.Context, grid domain.AblationGrid, req driving.AblationRequest) (*domain.AblationReport, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	models := grid.Models
	if len(models) == 0 {
		models = []string{""}
	}

	// Every cell reads the same test set; check it once.
	cases, err := s.deps.Evals.ReadCases(ctx, req.TestPath)
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: no cases in %s", domain.ErrInvalidInput, req.TestPath)
	}

	report := &domain.AblationReport{}
	for _, cs := range grid.ChunkSizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Section(fmt.Sprintf("Ablation chunk_size=%d", cs))

		dir := filepath.Join(req.WorkDir, fmt.Sprintf("cs%d", cs))
		cleanPath, err := s.prepare(ctx, cs, req.ManifestPath, dir)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("ablation: chunk_size=%d: %v", cs, err)
			for _, m := range models {
				report.Cells = append(report.Cells, failedCells(cs, m, grid.TopKs, err)...)
			}
			continue
		}

		for _, m := range models {
			cells, err := s.evaluate(ctx, cs, m, grid.TopKs, cleanPath, dir, req.TestPath)
			if err != nil {
				return nil, err
			}
			report.Cells = append(report.Cells, cells...)
		}
	}

	if req.OutputPath != "" {
		if err := s.deps.Evals.WriteAblation(ctx, req.OutputPath, report); err != nil {
			return nil, fmt.Errorf("write ablation report: %w", err)
		}
	}

	logger.Info("ablation: %d combinations, %d failed", len(report.Cells), report.Failures())
	return report, nil
}

// prepare chunks and validates the manifest at chunkSize and returns the
// clean records path.
func (s *AblationService) prepare(ctx context.Context, chunkSize int, manifestPath, dir string) (string, error) {
	ingest := s.deps.Ingest(chunkSize)

	rawPath := filepath.Join(dir, "raw.jsonl")
	if _, err := ingest.Chunk(ctx, manifestPath, rawPath); err != nil {
		return "", fmt.Errorf("chunk: %w", err)
	}

	cleanPath := filepath.Join(dir, "clean.jsonl")
	if _, err := ingest.Validate(ctx, rawPath, cleanPath); err != nil {
		return "", fmt.Errorf("validate: %w", err)
	}
	return cleanPath, nil
}

// evaluate indexes the clean records with model and scores every top-k. A
// failure is returned only when ctx is done; anything else lands in the cells.
func (s *AblationService) evaluate(ctx context.Context, chunkSize int, model string, topKs []int, cleanPath, dir, testPath string) ([]domain.AblationCell, error) {
	label := modelLabel(model)
	modelDir := filepath.Join(dir, fileSafe(label))

	query, release, err := s.deps.Query(model, modelDir)
	if err != nil {
		logger.Warn("ablation: model %s: %v", label, err)
		return failedCells(chunkSize, model, topKs, fmt.Errorf("provider: %w", err)), nil
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("ablation: closing model %s: %v", label, err)
		}
	}()

	if _, err := query.Reindex(ctx, cleanPath); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("ablation: chunk_size=%d model=%s: %v", chunkSize, label, err)
		return failedCells(chunkSize, model, topKs, fmt.Errorf("reindex: %w", err)), nil
	}

	evals := NewEvalService(query, s.deps.Evals)
	cells := make([]domain.AblationCell, 0, len(topKs))
	for _, k := range topKs {
		cell := domain.AblationCell{ChunkSize: chunkSize, Model: label, TopK: k}
		out := filepath.Join(dir, fmt.Sprintf("eval_cs%d_k%d_m%s.csv", chunkSize, k, fileSafe(label)))

		eval, err := evals.Evaluate(ctx, testPath, out, k)
		switch {
		case err == nil:
			cell.Report = eval
			logger.Info("ablation: chunk_size=%d model=%s k=%d EM@1=%.3f", chunkSize, label, k, eval.ExactMatch())
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			cell.Err = fmt.Sprintf("eval: %v", err)
			logger.Warn("ablation: chunk_size=%d model=%s k=%d: %v", chunkSize, label, k, err)
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

func failedCells(chunkSize int, model string, topKs []int, err error) []domain.AblationCell {
	cells := make([]domain.AblationCell, 0, len(topKs))
	for _, k := range topKs {
		cells = append(cells, domain.AblationCell{
			ChunkSize: chunkSize,
			Model:     modelLabel(model),
			TopK:      k,
			Err:       err.Error(),
		})
	}
	return cells
}

func modelLabel(model string) string {
	if model == "" {
		return domain.DefaultAblationModel
	}
	return model
}

// fileSafe replaces characters model names use that paths cannot carry.
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}
