package mcp

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result    *domain.QueryResult
	run       *domain.ReindexRun
	health    *domain.HealthStatus
	runs      []domain.ReindexRun
	err       error
	lastTopK  int
	lastPath  string
	lastLimit int
}

func (m *mockQueryService) Query(_ context.Context, _ string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	m.lastTopK = opts.TopK
	return m.result, m.err
}

func (m *mockQueryService) Reindex(_ context.Context, path string) (*domain.ReindexRun, error) {
	m.lastPath = path
	return m.run, m.err
}

func (m *mockQueryService) Health(_ context.Context) (*domain.HealthStatus, error) {
	return m.health, m.err
}

func (m *mockQueryService) Runs(_ context.Context, limit int) ([]domain.ReindexRun, error) {
	m.lastLimit = limit
	return m.runs, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	summary *driving.IngestSummary
	err     error
}

func (m *mockIngestService) Chunk(_ context.Context, _, _ string) (*driving.IngestSummary, error) {
	return m.summary, m.err
}

func (m *mockIngestService) Validate(_ context.Context, _, _ string) (*domain.ValidationReport, error) {
	return nil, m.err
}
